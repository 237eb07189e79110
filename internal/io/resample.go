package io

import (
	"fmt"

	"golang.org/x/image/draw"

	"hybrid-image-generator/internal/core"
)

// Fit resamples src to width x height with Catmull-Rom filtering. A source
// that already has that size is returned as a copy.
func Fit(src *core.Buffer, width, height int) (*core.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", core.ErrInvalidBuffer, width, height)
	}
	if src.Width == width && src.Height == height {
		return src.Clone(), nil
	}

	dst := core.NewBuffer(width, height).ToNRGBA()
	draw.CatmullRom.Scale(dst, dst.Bounds(), src.ToNRGBA(), src.Bounds(), draw.Src, nil)
	return core.FromImage(dst), nil
}
