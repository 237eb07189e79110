// Image loading and saving through OpenCV
package io

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"hybrid-image-generator/internal/core"
)

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage decodes a colour image into an opaque RGBA buffer.
func (il *ImageLoader) LoadImage(filepath string) (*core.Buffer, error) {
	il.logger.WithField("filepath", filepath).Debug("Loading image")

	if !il.isSupportedImageFormat(filepath) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath)
	}

	mat := gocv.IMRead(filepath, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", filepath)
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	if err := gocv.CvtColor(mat, &rgba, gocv.ColorBGRToRGBA); err != nil {
		return nil, fmt.Errorf("convert %s to RGBA: %w", filepath, err)
	}

	buf, err := core.FromPixels(rgba.Cols(), rgba.Rows(), rgba.ToBytes())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath, err)
	}

	il.logger.WithFields(logrus.Fields(buf.Metadata(filepath).Fields())).
		WithField("channels", mat.Channels()).
		Info("Image loaded successfully")

	return buf, nil
}

// SaveImage encodes buf by file extension. PNG and TIFF keep the alpha
// channel, the other formats drop it.
func (il *ImageLoader) SaveImage(buf *core.Buffer, filepath string) error {
	il.logger.WithField("filepath", filepath).Debug("Saving image")

	if err := buf.Validate(); err != nil {
		return fmt.Errorf("cannot save image: %w", err)
	}
	if !il.isSupportedImageFormat(filepath) {
		return fmt.Errorf("unsupported image format: %s", filepath)
	}

	rgba, err := gocv.NewMatFromBytes(buf.Height, buf.Width, gocv.MatTypeCV8UC4, buf.Pix)
	if err != nil {
		return fmt.Errorf("wrap pixels: %w", err)
	}
	defer rgba.Close()

	code := gocv.ColorRGBAToBGR
	if keepsAlpha(filepath) {
		code = gocv.ColorRGBAToBGRA
	}
	out := gocv.NewMat()
	defer out.Close()
	if err := gocv.CvtColor(rgba, &out, code); err != nil {
		return fmt.Errorf("convert pixels: %w", err)
	}

	if !gocv.IMWrite(filepath, out) {
		return fmt.Errorf("failed to save image: %s", filepath)
	}

	il.logger.WithFields(logrus.Fields(buf.Metadata(filepath).Fields())).
		WithField("channels", out.Channels()).
		Info("Image saved successfully")

	return nil
}

func (il *ImageLoader) isSupportedImageFormat(filepath string) bool {
	switch core.FormatFromPath(filepath) {
	case "jpg", "jpeg", "png", "tiff", "tif", "bmp":
		return true
	}
	return false
}

func keepsAlpha(filepath string) bool {
	switch core.FormatFromPath(filepath) {
	case "png", "tiff", "tif":
		return true
	}
	return false
}

func (il *ImageLoader) GetSupportedFormats() []string {
	return []string{"JPEG", "PNG", "TIFF", "BMP"}
}
