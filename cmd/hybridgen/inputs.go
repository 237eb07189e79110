package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"hybrid-image-generator/internal/core"
	imgio "hybrid-image-generator/internal/io"
	"hybrid-image-generator/internal/pipeline"
)

// controlPoints is the --points file layout: matching point lists for the
// two morph images.
type controlPoints struct {
	A []pipeline.Point `yaml:"a"`
	B []pipeline.Point `yaml:"b"`
}

func (a *app) load(path string) (*core.Buffer, error) {
	return imgio.NewImageLoader(a.logger).LoadImage(path)
}

// loadPair decodes both images concurrently. With --fit the second image is
// resampled to the size of the first.
func (a *app) loadPair(ctx context.Context, pathA, pathB string) (*core.Buffer, *core.Buffer, error) {
	loader := imgio.NewImageLoader(a.logger)

	var imgA, imgB *core.Buffer
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		imgA, err = loader.LoadImage(pathA)
		return err
	})
	g.Go(func() error {
		var err error
		imgB, err = loader.LoadImage(pathB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if imgA.SameSize(imgB) {
		return imgA, imgB, nil
	}
	if !a.cfg.Fit {
		return nil, nil, fmt.Errorf("%s is %dx%d but %s is %dx%d (use --fit): %w",
			pathA, imgA.Width, imgA.Height, pathB, imgB.Width, imgB.Height, core.ErrDimensionMismatch)
	}

	fitted, err := imgio.Fit(imgB, imgA.Width, imgA.Height)
	if err != nil {
		return nil, nil, fmt.Errorf("fit %s: %w", pathB, err)
	}
	a.logger.WithFields(logrus.Fields{
		"filepath": pathB,
		"from":     fmt.Sprintf("%dx%d", imgB.Width, imgB.Height),
		"to":       fmt.Sprintf("%dx%d", fitted.Width, fitted.Height),
	}).Info("Resampled image to match the first input")
	return imgA, fitted, nil
}

func (a *app) save(cmd *cobra.Command, result *core.Buffer, path string) error {
	if err := imgio.NewImageLoader(a.logger).SaveImage(result, path); err != nil {
		return a.fail(err)
	}
	if a.cfg.Debug {
		a.debugger.PrintStatus(cmd.ErrOrStderr())
	}
	return nil
}

// loadPoints reads a control point file. Both lists must be present.
func loadPoints(path string) ([]pipeline.Point, []pipeline.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read points: %w", err)
	}

	var pts controlPoints
	if err := yaml.Unmarshal(data, &pts); err != nil {
		return nil, nil, fmt.Errorf("parse points: %w", err)
	}
	if len(pts.A) != len(pts.B) {
		return nil, nil, fmt.Errorf("points: image a has %d points, image b has %d", len(pts.A), len(pts.B))
	}
	return pts.A, pts.B, nil
}

func parseValue(raw string) (interface{}, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a number nor a boolean", raw)
	}
	return f, nil
}
