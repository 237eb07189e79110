package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-image-generator/internal/algorithms"
	"hybrid-image-generator/internal/core"
)

func grey(w, h int, v uint8) *core.Buffer {
	return core.NewUniform(w, h, v, v, v, 255)
}

// pattern builds a deterministic colour image so cascade stages differ.
func pattern(w, h, seed int) *core.Buffer {
	b := core.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.SetRGBA(x, y,
				uint8((x*31+y*17+seed*29)%256),
				uint8((x*13+y*41+seed*7)%256),
				uint8((x*x+y*5+seed*3)%256),
				255)
		}
	}
	return b
}

func assertUniform(t *testing.T, b *core.Buffer) uint8 {
	t.Helper()
	r0, _, _, _ := b.RGBA(0, 0)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			r, g, bl, a := b.RGBA(x, y)
			require.Equal(t, []uint8{r0, r0, r0, 255}, []uint8{r, g, bl, a}, "pixel (%d,%d)", x, y)
		}
	}
	return r0
}

func TestLowPass(t *testing.T) {
	img := core.NewUniform(5, 5, 30, 60, 90, 255)

	out := LowPass(img, 3)

	assert.Equal(t, uint8(60), assertUniform(t, out))
	assert.True(t, algorithms.ToGrayscale(pattern(6, 6, 1)).Equal(LowPass(pattern(6, 6, 1), 0)),
		"a degenerate cutoff only converts to grayscale")
}

func TestHighPassOnUniformImage(t *testing.T) {
	img := core.NewUniform(6, 4, 10, 200, 90, 255)

	for _, mode := range []HighPassMode{HighPassLaplacian, HighPassResidual} {
		t.Run(string(mode), func(t *testing.T) {
			out, err := HighPassWithMode(img, 2, mode)
			require.NoError(t, err)
			assert.Equal(t, uint8(128), assertUniform(t, out))
		})
	}

	out, err := HighPass(img, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(128), assertUniform(t, out))
}

func TestHighPassRejectsUnknownMode(t *testing.T) {
	_, err := HighPassWithMode(grey(2, 2, 0), 2, "sobel")
	assert.Error(t, err)

	_, err = HighPass(&core.Buffer{}, 2)
	assert.ErrorIs(t, err, core.ErrInvalidBuffer)
}

func TestHybridOfIdenticalUniformImages(t *testing.T) {
	img := grey(4, 4, 90)

	high, err := HighPass(img, 2)
	require.NoError(t, err)
	out, err := HybridImage(LowPass(img, 2), high)
	require.NoError(t, err)

	v := assertUniform(t, out)
	assert.InDelta(t, 90, int(v), 1, "no edges, so the low band dominates")
}

func TestHybrid(t *testing.T) {
	a := pattern(8, 6, 1)
	b := pattern(8, 6, 2)

	out, err := Hybrid(a, b, 4, 2, HighPassLaplacian)
	require.NoError(t, err)

	high, err := HighPass(b, 2)
	require.NoError(t, err)
	want, err := HybridImage(LowPass(a, 4), high)
	require.NoError(t, err)
	assert.True(t, want.Equal(out))
}

func TestHybridDimensionMismatch(t *testing.T) {
	_, err := Hybrid(grey(4, 4, 0), grey(4, 5, 0), 4, 2, HighPassLaplacian)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	_, err = HybridImage(grey(4, 4, 0), grey(5, 4, 0))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestParseHighPassMode(t *testing.T) {
	mode, err := ParseHighPassMode("residual")
	require.NoError(t, err)
	assert.Equal(t, HighPassResidual, mode)

	_, err = ParseHighPassMode("")
	assert.Error(t, err)
}

func TestCascadeEmptySequence(t *testing.T) {
	for _, frames := range [][]*core.Buffer{nil, {}} {
		out, err := Cascade(frames, 12, 6)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, core.ErrEmptyFrameSequence)
		assert.ErrorIs(t, err, core.ErrNoResult)
	}
}

func TestCascadeOrBlank(t *testing.T) {
	out, err := CascadeOrBlank(nil, 12, 6, 3, 2)
	require.NoError(t, err)
	assert.True(t, core.NewBlank(3, 2).Equal(out))

	frame := pattern(3, 2, 1)
	out, err = CascadeOrBlank([]*core.Buffer{frame}, 2, 6, 3, 2)
	require.NoError(t, err)
	assert.True(t, LowPass(frame, 2).Equal(out))

	_, err = CascadeOrBlank([]*core.Buffer{frame, grey(2, 2, 0)}, 2, 6, 3, 2)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestCascadeSingleFrameIsLowPass(t *testing.T) {
	frame := pattern(7, 5, 3)
	out, err := Cascade([]*core.Buffer{frame}, 4, 6)
	require.NoError(t, err)
	assert.True(t, LowPass(frame, 4).Equal(out))
}

func TestCascadeComposition(t *testing.T) {
	f0 := pattern(9, 7, 0)
	f1 := pattern(9, 7, 1)
	f2 := pattern(9, 7, 2)
	frames := []*core.Buffer{f0, f1, f2}

	out, err := Cascade(frames, 5, 2)
	require.NoError(t, err)

	// Walked in reverse: f0 is the base, f2 the finest band, f1 the next.
	overlay := func(low, high *core.Buffer) *core.Buffer {
		res, err := HybridImage(low, high)
		require.NoError(t, err)
		return res
	}
	band := func(f *core.Buffer, radius float64) *core.Buffer {
		gray := algorithms.ToGrayscale(f)
		res, err := algorithms.ApplyBinary(gray, LowPass(gray, radius), algorithms.Subtract(false, 128))
		require.NoError(t, err)
		return res
	}
	want := overlay(overlay(LowPass(f0, 5), band(f2, 2)), band(f1, 4))

	assert.True(t, want.Equal(out))
	assert.Same(t, f0, frames[0], "input order is preserved")
	assert.Same(t, f2, frames[2], "input order is preserved")
}

func TestCascadeOfUniformFramesIsUniform(t *testing.T) {
	frames := []*core.Buffer{grey(4, 4, 90), grey(4, 4, 90), grey(4, 4, 90), grey(4, 4, 90)}
	out, err := Cascade(frames, 12, 6)
	require.NoError(t, err)

	v := assertUniform(t, out)
	assert.InDelta(t, 90, int(v), 3)
}

func TestCascadeRejectsMismatchedFrames(t *testing.T) {
	_, err := Cascade([]*core.Buffer{grey(4, 4, 0), grey(4, 3, 0)}, 12, 6)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}
