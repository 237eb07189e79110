package algorithms

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-image-generator/internal/core"
)

func TestClipIsIdempotent(t *testing.T) {
	for _, v := range []float64{-1000, -0.5, 0, 0.4, 127.5, 254.9, 255, 255.1, 1e9} {
		once := Clip(v)
		assert.Equal(t, once, Clip(once), "Clip(%v)", v)
		assert.Equal(t, Clamp(v, 0, 255), once, "Clip(%v)", v)
	}
}

func TestClip8TruncatesAndSaturates(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.99, 0},
		{1.99, 1},
		{127.5, 127},
		{254.999, 254},
		{255, 255},
		{300, 255},
		{math.Inf(1), 255},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clip8(tt.in), "clip8(%v)", tt.in)
	}
}

func TestApplyAllocatesAndForcesOpaque(t *testing.T) {
	src := core.NewUniform(3, 2, 10, 20, 30, 40)
	before := src.Clone()

	out := Apply(src, Brighten(2))

	assert.True(t, src.Equal(before), "source must not be mutated")
	require.Equal(t, src.Width, out.Width)
	require.Equal(t, src.Height, out.Height)
	r, g, b, a := out.RGBA(1, 1)
	assert.Equal(t, []uint8{20, 40, 60, 255}, []uint8{r, g, b, a})
}

func TestApplyKeepAlpha(t *testing.T) {
	src := core.NewUniform(2, 2, 10, 20, 30, 40)
	op := Grayscale()
	op.KeepAlpha = true

	out := Apply(src, op)

	_, _, _, a := out.RGBA(0, 0)
	assert.Equal(t, uint8(40), a)
}

func TestGrayscaleScenario(t *testing.T) {
	src := core.NewUniform(2, 2, 100, 150, 200, 255)

	out := ToGrayscale(src)

	want := core.NewUniform(2, 2, 150, 150, 150, 255)
	assert.True(t, want.Equal(out), "got %v", out.Pix)
}

func TestGrayscaleIsIdempotent(t *testing.T) {
	src := gradient(t, 9, 7)
	once := ToGrayscale(src)
	twice := ToGrayscale(once)
	assert.True(t, once.Equal(twice))
}

func TestInvertIsInvolution(t *testing.T) {
	src := gradient(t, 8, 5)
	out := Apply(Apply(src, Invert()), Invert())
	assert.True(t, src.Equal(out))
}

func TestUnaryFilters(t *testing.T) {
	src := core.NewUniform(1, 1, 100, 200, 0, 255)
	tests := []struct {
		name string
		op   Unary
		want [3]uint8
	}{
		{"brighten saturates", Brighten(1.5), [3]uint8{150, 255, 0}},
		{"darken", Darken(2), [3]uint8{50, 100, 0}},
		{"darken truncates", Darken(3), [3]uint8{33, 66, 0}},
		{"darken by zero", Darken(0), [3]uint8{255, 255, 0}},
		{"invert", Invert(), [3]uint8{155, 55, 255}},
		{"grayscale", Grayscale(), [3]uint8{100, 100, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pixel(Apply(src, tt.op), 0, 0))
		})
	}
}

func TestBinaryBlends(t *testing.T) {
	a := core.NewUniform(1, 1, 200, 50, 0, 255)
	b := core.NewUniform(1, 1, 100, 100, 255, 255)
	tests := []struct {
		name string
		op   Binary
		want [3]uint8
	}{
		{"add", Add(0), [3]uint8{255, 150, 255}},
		{"add with shift", Add(128), [3]uint8{172, 22, 127}},
		{"subtract symmetric", Subtract(true, 0), [3]uint8{100, 50, 255}},
		{"subtract signed shifted", Subtract(false, 128), [3]uint8{228, 78, 0}},
		{"multiply", Multiply(), [3]uint8{78, 19, 0}},
		{"screen", Screen(), [3]uint8{221, 130, 255}},
		{"overlay", Overlay(), [3]uint8{188, 39, 0}},
		{"dissolve", Dissolve(0.25), [3]uint8{125, 87, 191}},
		{"add dissolve", AddDissolve(1), [3]uint8{172, 22, 127}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyBinary(a, b, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pixel(out, 0, 0))
		})
	}
}

func TestBlendIdentities(t *testing.T) {
	mid := uniform(2, 2, 128)
	out, err := ApplyBinary(mid, mid, Overlay())
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{128, 128, 128}, pixel(out, 1, 1), "overlay(128,128)")

	for v := 0; v < 256; v += 17 {
		x := uniform(1, 1, uint8(v))

		out, err := ApplyBinary(uniform(1, 1, 0), x, Multiply())
		require.NoError(t, err)
		assert.Equal(t, [3]uint8{0, 0, 0}, pixel(out, 0, 0), "multiply(0,%d)", v)

		out, err = ApplyBinary(uniform(1, 1, 255), x, Screen())
		require.NoError(t, err)
		assert.Equal(t, [3]uint8{255, 255, 255}, pixel(out, 0, 0), "screen(255,%d)", v)
	}
}

func TestOverlayBranchPoint(t *testing.T) {
	// 127 takes the multiply branch, 128 the screen branch.
	assert.InDelta(t, 2*127.0*200/255, overlay(127, 200), 1e-9)
	assert.InDelta(t, 255*(1-2*(1-128.0/255)*(1-200.0/255)), overlay(128, 200), 1e-9)
	assert.InDelta(t, 255*(1-2*(1-127.5/255)*(1-200.0/255)), overlay(127.5, 200), 1e-9)
}

func TestSubtractIdenticalIsZero(t *testing.T) {
	img := gradient(t, 6, 6)
	out, err := ApplyBinary(img, img, Subtract(true, 0))
	require.NoError(t, err)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			assert.Equal(t, [3]uint8{0, 0, 0}, pixel(out, x, y))
		}
	}
}

func TestBinaryDimensionMismatch(t *testing.T) {
	a := uniform(4, 4, 10)
	b := uniform(4, 3, 10)
	for _, op := range []Binary{Add(0), Subtract(true, 0), Multiply(), Screen(), Overlay(), Dissolve(0.5), AddDissolve(1)} {
		out, err := ApplyBinary(a, b, op)
		assert.ErrorIs(t, err, core.ErrDimensionMismatch, op.Name)
		assert.Nil(t, out)
	}
}

func TestRunDispatch(t *testing.T) {
	img := uniform(2, 2, 100)

	out, err := Run(Invert(), img)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{155, 155, 155}, pixel(out, 0, 0))

	out, err = Run(Add(0), img, img)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{200, 200, 200}, pixel(out, 0, 0))

	_, err = Run(Add(0), img)
	assert.Error(t, err)

	_, err = Run(Invert(), &core.Buffer{Width: 2, Height: 2})
	assert.ErrorIs(t, err, core.ErrInvalidBuffer)
}

func TestFuncAdapters(t *testing.T) {
	img := core.NewUniform(2, 1, 10, 20, 30, 255)
	swap := Unary{Name: "swap", Op: UnaryFunc(func(x, y int, src *core.Buffer) RGB {
		c := sample(src, x, y)
		return RGB{R: c.B, G: c.G, B: c.R}
	})}
	assert.Equal(t, [3]uint8{30, 20, 10}, pixel(Apply(img, swap), 1, 0))

	first := Binary{Name: "first", Op: BinaryFunc(func(x, y int, a, b *core.Buffer) RGB {
		return sample(a, x, y)
	})}
	out, err := ApplyBinary(img, uniform(2, 1, 0), first)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{10, 20, 30}, pixel(out, 0, 0))
}
