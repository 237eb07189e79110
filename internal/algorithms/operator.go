// Per-pixel operator framework shared by every filter and blend
package algorithms

import (
	"fmt"

	"hybrid-image-generator/internal/core"
)

// RGB is a raw, unclamped colour produced by an operator. Components may be
// fractional, negative or above 255; the framework clips them on write-back.
type RGB struct {
	R, G, B float64
}

// UnaryOp computes one output pixel from a single source.
type UnaryOp interface {
	Pixel(x, y int, src *core.Buffer) RGB
}

// BinaryOp computes one output pixel from two equally sized sources.
type BinaryOp interface {
	Pixel(x, y int, a, b *core.Buffer) RGB
}

// UnaryFunc adapts a plain function to UnaryOp.
type UnaryFunc func(x, y int, src *core.Buffer) RGB

func (f UnaryFunc) Pixel(x, y int, src *core.Buffer) RGB { return f(x, y, src) }

// BinaryFunc adapts a plain function to BinaryOp.
type BinaryFunc func(x, y int, a, b *core.Buffer) RGB

func (f BinaryFunc) Pixel(x, y int, a, b *core.Buffer) RGB { return f(x, y, a, b) }

// Operator is either a Unary or a Binary operator.
type Operator interface {
	OpName() string
	Arity() int
	isOperator()
}

// Unary wraps a single-source operator. When KeepAlpha is set the source
// alpha is copied to the output instead of forcing it opaque.
type Unary struct {
	Name      string
	Op        UnaryOp
	KeepAlpha bool
}

// Binary wraps a two-source operator. KeepAlpha copies alpha from the first
// source.
type Binary struct {
	Name      string
	Op        BinaryOp
	KeepAlpha bool
}

func (u Unary) OpName() string  { return u.Name }
func (u Unary) Arity() int      { return 1 }
func (Unary) isOperator()       {}
func (b Binary) OpName() string { return b.Name }
func (b Binary) Arity() int     { return 2 }
func (Binary) isOperator()      {}

// Apply maps a unary operator over every pixel of src into a new buffer.
func Apply(src *core.Buffer, op Unary) *core.Buffer {
	out := core.NewBuffer(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			c := op.Op.Pixel(x, y, src)
			alpha := uint8(255)
			if op.KeepAlpha {
				alpha = src.Pix[src.Offset(x, y)+3]
			}
			writePixel(out, x, y, c, alpha)
		}
	}
	return out
}

// ApplyBinary maps a binary operator over every pixel pair of a and b.
// The output has the dimensions of a.
func ApplyBinary(a, b *core.Buffer, op Binary) (*core.Buffer, error) {
	if err := core.CheckSameSize(a, b); err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}

	out := core.NewBuffer(a.Width, a.Height)
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			c := op.Op.Pixel(x, y, a, b)
			alpha := uint8(255)
			if op.KeepAlpha {
				alpha = a.Pix[a.Offset(x, y)+3]
			}
			writePixel(out, x, y, c, alpha)
		}
	}
	return out, nil
}

// Run dispatches on the operator variant. It checks that the number of
// inputs matches the operator arity.
func Run(op Operator, inputs ...*core.Buffer) (*core.Buffer, error) {
	if len(inputs) != op.Arity() {
		return nil, fmt.Errorf("%s expects %d input(s), got %d", op.OpName(), op.Arity(), len(inputs))
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("%s input %d: %w", op.OpName(), i, err)
		}
	}

	switch o := op.(type) {
	case Unary:
		return Apply(inputs[0], o), nil
	case Binary:
		return ApplyBinary(inputs[0], inputs[1], o)
	default:
		return nil, fmt.Errorf("unsupported operator type %T", op)
	}
}

// writePixel is the single write-back point: truncate, clamp, pack.
func writePixel(dst *core.Buffer, x, y int, c RGB, alpha uint8) {
	i := dst.Offset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	p[0] = clip8(c.R)
	p[1] = clip8(c.G)
	p[2] = clip8(c.B)
	p[3] = alpha
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clip clamps v to the 8-bit colour range.
func Clip(v float64) float64 {
	return Clamp(v, 0, 255)
}

// clip8 truncates toward zero and saturates. NaN maps to 0.
func clip8(v float64) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// sample reads the colour channels of one pixel as floats.
func sample(src *core.Buffer, x, y int) RGB {
	i := src.Offset(x, y)
	p := src.Pix[i : i+3 : i+3]
	return RGB{R: float64(p[0]), G: float64(p[1]), B: float64(p[2])}
}

// perChannel applies fn independently to each channel pair.
func perChannel(a, b RGB, fn func(a, b float64) float64) RGB {
	return RGB{R: fn(a.R, b.R), G: fn(a.G, b.G), B: fn(a.B, b.B)}
}
