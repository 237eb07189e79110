// Binary blend operators, evaluated independently per colour channel
package algorithms

import (
	"math"

	"hybrid-image-generator/internal/core"
)

const maxChannel = 255.0

// AddOp sums both sources and subtracts Shift.
type AddOp struct {
	Shift float64
}

func (o AddOp) Pixel(x, y int, a, b *core.Buffer) RGB {
	return perChannel(sample(a, x, y), sample(b, x, y), func(ca, cb float64) float64 {
		return ca + cb - o.Shift
	})
}

// SubtractOp computes a-b (or |a-b| when Symmetric) plus Shift. A shift of
// 128 recentres signed differences into the visible range.
type SubtractOp struct {
	Symmetric bool
	Shift     float64
}

func (o SubtractOp) Pixel(x, y int, a, b *core.Buffer) RGB {
	return perChannel(sample(a, x, y), sample(b, x, y), func(ca, cb float64) float64 {
		d := ca - cb
		if o.Symmetric {
			d = math.Abs(d)
		}
		return d + o.Shift
	})
}

// MultiplyOp darkens: a*b/255.
type MultiplyOp struct{}

func (MultiplyOp) Pixel(x, y int, a, b *core.Buffer) RGB {
	return perChannel(sample(a, x, y), sample(b, x, y), multiply)
}

// ScreenOp lightens: 255*(1-(1-a/255)(1-b/255)).
type ScreenOp struct{}

func (ScreenOp) Pixel(x, y int, a, b *core.Buffer) RGB {
	return perChannel(sample(a, x, y), sample(b, x, y), screen)
}

// OverlayOp multiplies where a is dark and screens where a is bright. The
// branch point is exactly a >= 127.5.
type OverlayOp struct{}

func (OverlayOp) Pixel(x, y int, a, b *core.Buffer) RGB {
	return perChannel(sample(a, x, y), sample(b, x, y), overlay)
}

// DissolveOp interpolates linearly: a*Intensity + b*(1-Intensity).
type DissolveOp struct {
	Intensity float64
}

func (o DissolveOp) Pixel(x, y int, a, b *core.Buffer) RGB {
	return perChannel(sample(a, x, y), sample(b, x, y), func(ca, cb float64) float64 {
		return ca*o.Intensity + (1-o.Intensity)*cb
	})
}

// AddDissolveOp adds b, recentred around 128, to a: a + Intensity*(b-128).
type AddDissolveOp struct {
	Intensity float64
}

func (o AddDissolveOp) Pixel(x, y int, a, b *core.Buffer) RGB {
	return perChannel(sample(a, x, y), sample(b, x, y), func(ca, cb float64) float64 {
		return ca + o.Intensity*(cb-128)
	})
}

func multiply(a, b float64) float64 {
	return a * b / maxChannel
}

func screen(a, b float64) float64 {
	return maxChannel * (1 - (1-a/maxChannel)*(1-b/maxChannel))
}

func overlay(a, b float64) float64 {
	if a >= maxChannel/2 {
		return maxChannel * (1 - 2*(1-a/maxChannel)*(1-b/maxChannel))
	}
	return 2 * multiply(a, b)
}

// Add returns the add operator.
func Add(shift float64) Binary {
	return Binary{Name: "add", Op: AddOp{Shift: shift}}
}

// Subtract returns the subtract operator.
func Subtract(symmetric bool, shift float64) Binary {
	return Binary{Name: "subtract", Op: SubtractOp{Symmetric: symmetric, Shift: shift}}
}

// Multiply returns the multiply blend.
func Multiply() Binary {
	return Binary{Name: "multiply", Op: MultiplyOp{}}
}

// Screen returns the screen blend.
func Screen() Binary {
	return Binary{Name: "screen", Op: ScreenOp{}}
}

// Overlay returns the overlay blend.
func Overlay() Binary {
	return Binary{Name: "overlay", Op: OverlayOp{}}
}

// Dissolve returns the dissolve operator.
func Dissolve(intensity float64) Binary {
	return Binary{Name: "dissolve", Op: DissolveOp{Intensity: intensity}}
}

// AddDissolve returns the additive dissolve operator.
func AddDissolve(intensity float64) Binary {
	return Binary{Name: "add_dissolve", Op: AddDissolveOp{Intensity: intensity}}
}
