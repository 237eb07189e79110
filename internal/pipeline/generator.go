package pipeline

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"hybrid-image-generator/internal/config"
	"hybrid-image-generator/internal/core"
	"hybrid-image-generator/internal/metrics"
)

// Generator runs the hybrid and morph pipelines with configured cutoffs,
// logging every stage.
type Generator struct {
	cfg         *config.Config
	logger      logrus.FieldLogger
	debugger    *Debugger
	metricsEval *metrics.Evaluator
}

func NewGenerator(cfg *config.Config, logger logrus.FieldLogger, debugger *Debugger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		cfg:         cfg,
		logger:      logger,
		debugger:    debugger,
		metricsEval: metrics.NewEvaluator(),
	}, nil
}

// Hybrid combines the low band of a with the high band of b.
func (g *Generator) Hybrid(a, b *core.Buffer) (*core.Buffer, error) {
	mode, err := ParseHighPassMode(g.cfg.HighPassMode)
	if err != nil {
		return nil, err
	}
	if err := core.CheckSameSize(a, b); err != nil {
		g.logger.WithError(err).Error("PIPELINE: Hybrid inputs differ in size")
		return nil, err
	}

	lowCutoff := float64(g.cfg.LowPassCutoff)
	highCutoff := float64(g.cfg.HighPassCutoff)

	var low, high, result *core.Buffer
	err = g.debugger.Track("low_pass", g.stageFields(a, lowCutoff), func() error {
		low = LowPass(a, lowCutoff)
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := g.stageFields(b, highCutoff)
	fields["mode"] = string(mode)
	err = g.debugger.Track("high_pass", fields, func() error {
		var err error
		high, err = HighPassWithMode(b, highCutoff, mode)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("high pass: %w", err)
	}

	err = g.debugger.Track("hybrid", g.stageFields(a, 0), func() error {
		var err error
		result, err = HybridImage(low, high)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}

	g.logMetrics("hybrid", a, result)
	return result, nil
}

// Morph generates steps+1 frames with source and composites them with the
// cascade. It returns core.ErrNoResult when there are no control points.
func (g *Generator) Morph(source FrameSource, a *core.Buffer, pa []Point, b *core.Buffer, pb []Point) (*core.Buffer, error) {
	if len(pa) == 0 || len(pb) == 0 {
		g.logger.Info("PIPELINE: No control points, nothing to morph")
		return nil, core.ErrNoResult
	}

	var frames []*core.Buffer
	err := g.debugger.Track("frames", map[string]interface{}{"steps": g.cfg.MorphSteps, "points": len(pa)}, func() error {
		var err error
		frames, err = source.Frames(a, pa, b, pb, g.cfg.MorphSteps)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("generate frames: %w", err)
	}

	var result *core.Buffer
	fields := g.stageFields(a, float64(g.cfg.CascadeLowCutoff))
	fields["frames"] = len(frames)
	fields["cutoff_per_pass"] = g.cfg.CutoffPerPass
	err = g.debugger.Track("cascade", fields, func() error {
		var err error
		result, err = Cascade(frames, float64(g.cfg.CascadeLowCutoff), float64(g.cfg.CutoffPerPass))
		return err
	})
	if err != nil {
		return nil, err
	}

	g.logMetrics("morph", a, result)
	return result, nil
}

func (g *Generator) stageFields(b *core.Buffer, radius float64) map[string]interface{} {
	return map[string]interface{}{
		"width":  b.Width,
		"height": b.Height,
		"radius": radius,
	}
}

// logMetrics reports how far the result drifted from the source image.
func (g *Generator) logMetrics(stage string, source, result *core.Buffer) {
	if !g.cfg.Debug {
		return
	}
	var report metrics.QualityReport
	_ = g.debugger.Track("metrics", map[string]interface{}{"stage": stage}, func() error {
		report = g.metricsEval.GenerateReport(source, result)
		return nil
	})

	fields := logrus.Fields{
		"stage":         stage,
		"overall_score": report.OverallScore,
		"quality_level": report.Analysis.QualityLevel,
	}
	for name, v := range report.Metrics {
		if math.IsInf(v, 0) {
			fields[name] = "inf"
			continue
		}
		fields[name] = v
	}
	entry := g.logger.WithFields(fields)
	if len(report.Analysis.Issues) > 0 {
		entry = entry.WithField("issues", report.Analysis.Issues)
	}
	entry.Debug("PIPELINE: Result quality")
}
