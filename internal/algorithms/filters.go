// Unary colour filters
package algorithms

import "hybrid-image-generator/internal/core"

// BrightenOp multiplies each channel by Intensity.
type BrightenOp struct {
	Intensity float64
}

func (o BrightenOp) Pixel(x, y int, src *core.Buffer) RGB {
	c := sample(src, x, y)
	return RGB{R: c.R * o.Intensity, G: c.G * o.Intensity, B: c.B * o.Intensity}
}

// DarkenOp divides each channel by Intensity. A zero intensity saturates
// non-zero channels to white and leaves zero channels black.
type DarkenOp struct {
	Intensity float64
}

func (o DarkenOp) Pixel(x, y int, src *core.Buffer) RGB {
	c := sample(src, x, y)
	return RGB{R: c.R / o.Intensity, G: c.G / o.Intensity, B: c.B / o.Intensity}
}

// GrayscaleOp averages the three colour channels.
type GrayscaleOp struct{}

func (GrayscaleOp) Pixel(x, y int, src *core.Buffer) RGB {
	c := sample(src, x, y)
	v := (c.R + c.G + c.B) / 3
	return RGB{R: v, G: v, B: v}
}

// InvertOp replaces each channel with 255 minus its value.
type InvertOp struct{}

func (InvertOp) Pixel(x, y int, src *core.Buffer) RGB {
	c := sample(src, x, y)
	return RGB{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B}
}

// Brighten returns the brighten operator.
func Brighten(intensity float64) Unary {
	return Unary{Name: "brighten", Op: BrightenOp{Intensity: intensity}}
}

// Darken returns the darken operator.
func Darken(intensity float64) Unary {
	return Unary{Name: "darken", Op: DarkenOp{Intensity: intensity}}
}

// Grayscale returns the grayscale operator.
func Grayscale() Unary {
	return Unary{Name: "grayscale", Op: GrayscaleOp{}}
}

// Invert returns the invert operator.
func Invert() Unary {
	return Unary{Name: "invert", Op: InvertOp{}}
}

// ToGrayscale is shorthand for Apply(src, Grayscale()).
func ToGrayscale(src *core.Buffer) *core.Buffer {
	return Apply(src, Grayscale())
}
