// StackBlur: a linear-time approximation of Gaussian blur.
//
// Based on the algorithm by Mario Klingemann,
// http://incubator.quasimondo.com/processing/fast_blur_deluxe.php
package algorithms

import (
	"math"

	"hybrid-image-generator/internal/core"
)

// MaxBlurRadius is the largest radius covered by the lookup tables.
const MaxBlurRadius = 254

// mulTable and shgTable replace the division by (radius+1)^2 with
// (sum * mulTable[radius]) >> shgTable[radius].
var mulTable = [MaxBlurRadius + 1]uint64{
	512, 512, 456, 512, 328, 456, 335, 512, 405, 328, 271, 456, 388, 335, 292, 512,
	454, 405, 364, 328, 298, 271, 496, 456, 420, 388, 360, 335, 312, 292, 273, 512,
	482, 454, 428, 405, 383, 364, 345, 328, 312, 298, 284, 271, 259, 496, 475, 456,
	437, 420, 404, 388, 374, 360, 347, 335, 323, 312, 302, 292, 282, 273, 265, 512,
	497, 482, 468, 454, 441, 428, 417, 405, 394, 383, 373, 364, 354, 345, 337, 328,
	320, 312, 305, 298, 291, 284, 278, 271, 265, 259, 507, 496, 485, 475, 465, 456,
	446, 437, 428, 420, 412, 404, 396, 388, 381, 374, 367, 360, 354, 347, 341, 335,
	329, 323, 318, 312, 307, 302, 297, 292, 287, 282, 278, 273, 269, 265, 261, 512,
	505, 497, 489, 482, 475, 468, 461, 454, 447, 441, 435, 428, 422, 417, 411, 405,
	399, 394, 389, 383, 378, 373, 368, 364, 359, 354, 350, 345, 341, 337, 332, 328,
	324, 320, 316, 312, 309, 305, 301, 298, 294, 291, 287, 284, 281, 278, 274, 271,
	268, 265, 262, 259, 257, 507, 501, 496, 491, 485, 480, 475, 470, 465, 460, 456,
	451, 446, 442, 437, 433, 428, 424, 420, 416, 412, 408, 404, 400, 396, 392, 388,
	385, 381, 377, 374, 370, 367, 363, 360, 357, 354, 350, 347, 344, 341, 338, 335,
	332, 329, 326, 323, 320, 318, 315, 312, 310, 307, 304, 302, 299, 297, 294, 292,
	289, 287, 285, 282, 280, 278, 275, 273, 271, 269, 267, 265, 263, 261, 259,
}

var shgTable = [MaxBlurRadius + 1]uint64{
	9, 11, 12, 13, 13, 14, 14, 15, 15, 15, 15, 16, 16, 16, 16, 17,
	17, 17, 17, 17, 17, 17, 18, 18, 18, 18, 18, 18, 18, 18, 18, 19,
	19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 19, 20, 20, 20,
	20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 20, 21,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 21,
	21, 21, 21, 21, 21, 21, 21, 21, 21, 21, 22, 22, 22, 22, 22, 22,
	22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22,
	22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 22, 23,
	23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23,
	23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23,
	23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23, 23,
	23, 23, 23, 23, 23, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
}

// blurNode holds one sample of the moving window.
type blurNode [core.Channels]uint64

// stackBlur is the sliding-window state for one radius. The window is a
// fixed ring of 2*radius+1 nodes; in and out are ring indices.
type stackBlur struct {
	radius    int
	sumFactor uint64
	stack     []blurNode
	divide    func(sum uint64) uint64
}

func newStackBlur(radius int, divide func(sum uint64) uint64) *stackBlur {
	rp1 := uint64(radius + 1)
	return &stackBlur{
		radius:    radius,
		sumFactor: rp1 * (rp1 + 1) / 2,
		stack:     make([]blurNode, 2*radius+1),
		divide:    divide,
	}
}

// tableDivide divides a window sum of 8-bit samples by (radius+1)^2 with
// the lookup tables.
func tableDivide(radius int) func(uint64) uint64 {
	mul, shg := mulTable[radius], shgTable[radius]
	return func(sum uint64) uint64 {
		return min((sum*mul)>>shg, 255)
	}
}

// exactDivide divides a window sum by (radius+1)^2, rounding to nearest.
// It serves planes whose samples exceed 8 bits.
func exactDivide(radius int) func(uint64) uint64 {
	d := uint64(radius+1) * uint64(radius+1)
	return func(sum uint64) uint64 {
		return (sum + d/2) / d
	}
}

// normalizeRadius truncates the radius and reports whether blurring is a
// no-op. Radii above MaxBlurRadius are capped.
func normalizeRadius(radius float64) (int, bool) {
	if math.IsNaN(radius) || radius < 1 {
		return 0, false
	}
	if radius > MaxBlurRadius {
		return MaxBlurRadius, true
	}
	return int(radius), true
}

// StackBlurRGB blurs the colour channels of src and leaves alpha untouched.
// A radius below 1 (or NaN) returns an unmodified copy.
func StackBlurRGB(src *core.Buffer, radius float64) *core.Buffer {
	out := src.Clone()
	r, ok := normalizeRadius(radius)
	if !ok {
		return out
	}

	plane := make([]uint64, len(out.Pix))
	for i, v := range out.Pix {
		plane[i] = uint64(v)
	}
	newStackBlur(r, tableDivide(r)).blur(plane, out.Width, out.Height, 3)
	for i := 0; i < len(plane); i += core.Channels {
		out.Pix[i] = uint8(plane[i])
		out.Pix[i+1] = uint8(plane[i+1])
		out.Pix[i+2] = uint8(plane[i+2])
	}
	return out
}

// StackBlurRGBA blurs all four channels. Colour is weighted by alpha at full
// precision during accumulation and divided by the blurred alpha on
// write-back, so transparent pixels neither darken their neighbours nor
// lose colour depth.
func StackBlurRGBA(src *core.Buffer, radius float64) *core.Buffer {
	out := src.Clone()
	r, ok := normalizeRadius(radius)
	if !ok {
		return out
	}

	plane := premultiply(out)
	newStackBlur(r, exactDivide(r)).blur(plane, out.Width, out.Height, 4)
	unpremultiply(plane, out)
	return out
}

// blur runs the horizontal pass over every row, then the vertical pass over
// every column. The passes must not be interleaved.
func (s *stackBlur) blur(plane []uint64, width, height, channels int) {
	rowStep := core.Channels
	for y := 0; y < height; y++ {
		s.line(plane, y*width*core.Channels, rowStep, width, channels)
	}
	colStep := width * core.Channels
	for x := 0; x < width; x++ {
		s.line(plane, x*core.Channels, colStep, height, channels)
	}
}

// line blurs n samples starting at offset start, step slots apart, in
// place. Samples past the end of the line repeat the last one.
func (s *stackBlur) line(plane []uint64, start, step, n, channels int) {
	var sum, inSum, outSum [core.Channels]uint64

	rp1 := s.radius + 1
	last := n - 1
	div := len(s.stack)
	stack := s.stack

	// The leading edge replicates the first sample radius+1 times.
	for c := 0; c < channels; c++ {
		v := plane[start+c]
		outSum[c] = uint64(rp1) * v
		sum[c] = s.sumFactor * v
	}
	for i := 0; i < rp1; i++ {
		for c := 0; c < channels; c++ {
			stack[i][c] = plane[start+c]
		}
	}
	for i := 1; i < rp1; i++ {
		p := start + min(i, last)*step
		weight := uint64(rp1 - i)
		node := &stack[s.radius+i]
		for c := 0; c < channels; c++ {
			v := plane[p+c]
			node[c] = v
			sum[c] += v * weight
			inSum[c] += v
		}
	}

	in, out := 0, rp1
	for x := 0; x < n; x++ {
		o := start + x*step
		for c := 0; c < channels; c++ {
			plane[o+c] = s.divide(sum[c])
		}

		for c := 0; c < channels; c++ {
			sum[c] -= outSum[c]
			outSum[c] -= stack[in][c]
		}

		p := start + min(x+rp1, last)*step
		for c := 0; c < channels; c++ {
			v := plane[p+c]
			stack[in][c] = v
			inSum[c] += v
			sum[c] += inSum[c]
		}
		in++
		if in == div {
			in = 0
		}

		for c := 0; c < channels; c++ {
			v := stack[out][c]
			outSum[c] += v
			inSum[c] -= v
		}
		out++
		if out == div {
			out = 0
		}
	}
}

// premultiply returns the plane of b with colour scaled by alpha and alpha
// scaled by 255, so all four channels share the range 0..255*255.
func premultiply(b *core.Buffer) []uint64 {
	plane := make([]uint64, len(b.Pix))
	for i := 0; i < len(b.Pix); i += core.Channels {
		a := uint64(b.Pix[i+3])
		for c := 0; c < 3; c++ {
			plane[i+c] = uint64(b.Pix[i+c]) * a
		}
		plane[i+3] = a * 255
	}
	return plane
}

func unpremultiply(plane []uint64, b *core.Buffer) {
	for i := 0; i < len(plane); i += core.Channels {
		a := plane[i+3]
		b.Pix[i+3] = uint8((a + 127) / 255)
		if a == 0 {
			b.Pix[i], b.Pix[i+1], b.Pix[i+2] = 0, 0, 0
			continue
		}
		for c := 0; c < 3; c++ {
			b.Pix[i+c] = uint8(min((plane[i+c]*255+a/2)/a, 255))
		}
	}
}
