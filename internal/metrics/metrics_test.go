package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid-image-generator/internal/core"
)

func grey(w, h int, v uint8) *core.Buffer {
	return core.NewUniform(w, h, v, v, v, 255)
}

func checker(w, h int) *core.Buffer {
	b := core.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40)
			if (x+y)%2 == 0 {
				v = 220
			}
			b.SetRGBA(x, y, v, v, v, 255)
		}
	}
	return b
}

func TestIdenticalBuffers(t *testing.T) {
	e := NewEvaluator()
	img := checker(6, 6)

	results := e.CalculateAll(img, img.Clone())

	assert.True(t, math.IsInf(results["psnr"], 1))
	assert.InDelta(t, 1.0, results["ssim"], 1e-12)
	assert.Zero(t, results["mse"])
	assert.Zero(t, results["mae"])
	assert.InDelta(t, 1.0, results["contrast_ratio"], 1e-12)
	assert.InDelta(t, 1.0, results["sharpness"], 1e-12)
}

func TestUniformOffset(t *testing.T) {
	e := NewEvaluator()
	a := grey(4, 4, 100)
	b := grey(4, 4, 110)

	mse, err := e.Calculate("mse", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, mse, 1e-9)

	psnr, err := e.CalculatePSNR(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 20*math.Log10(25.5), psnr, 1e-9)

	mae, err := e.Calculate("mae", a, b)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, mae, 1e-9)

	ssim, err := e.CalculateSSIM(a, b)
	require.NoError(t, err)
	assert.Less(t, ssim, 1.0)
	assert.Greater(t, ssim, 0.99)

	ratio, err := e.Calculate("contrast_ratio", a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio, "flat originals report full preservation")
}

func TestSSIMDropsForUnrelatedStructure(t *testing.T) {
	img := checker(8, 8)
	inverted := core.NewBuffer(8, 8)
	for i := range img.Pix {
		inverted.Pix[i] = 255 - img.Pix[i]
	}
	for i := 3; i < len(inverted.Pix); i += core.Channels {
		inverted.Pix[i] = 255
	}

	ssim, err := NewSSIM().Calculate(img, inverted)
	require.NoError(t, err)
	assert.Less(t, ssim, 0.0, "anti-correlated structure")
}

func TestContrastAndSharpnessRatios(t *testing.T) {
	e := NewEvaluator()
	sharp := checker(8, 8)
	flat := grey(8, 8, 130)

	ratio, err := e.Calculate("contrast_ratio", sharp, flat)
	require.NoError(t, err)
	assert.Zero(t, ratio)

	sharpness, err := e.Calculate("sharpness", sharp, flat)
	require.NoError(t, err)
	assert.Zero(t, sharpness)
}

func TestMetricErrors(t *testing.T) {
	e := NewEvaluator()
	a := grey(4, 4, 1)

	_, err := e.Calculate("f_measure", a, a)
	assert.Error(t, err)

	for _, name := range e.Names() {
		_, err := e.Calculate(name, a, grey(4, 5, 1))
		assert.ErrorIs(t, err, core.ErrDimensionMismatch, name)

		_, err = e.Calculate(name, a, &core.Buffer{})
		assert.ErrorIs(t, err, core.ErrInvalidBuffer, name)
	}

	assert.Empty(t, e.CalculateAll(a, grey(2, 2, 1)))
}

func TestEvaluateStep(t *testing.T) {
	e := NewEvaluator()
	before := checker(6, 6)
	after := grey(6, 6, 130)

	blur := e.EvaluateStep(before, after, "stack_blur")
	assert.Contains(t, blur, "psnr")
	assert.Contains(t, blur, "ssim")
	assert.Contains(t, blur, "contrast_preservation")
	assert.Contains(t, blur, "edge_preservation")

	other := e.EvaluateStep(before, after, "invert")
	assert.Contains(t, other, "mae")
	assert.NotContains(t, other, "edge_preservation")
}

func TestGenerateReport(t *testing.T) {
	e := NewEvaluator()
	img := checker(6, 6)

	// Ratio metrics sit mid-range when nothing changed, so the ceiling is 90.
	same := e.GenerateReport(img, img)
	assert.Contains(t, []string{"excellent", "good"}, same.Analysis.QualityLevel)
	assert.Empty(t, same.Analysis.Issues)
	assert.InDelta(t, 90.0, same.OverallScore, 1e-6)

	different := e.GenerateReport(img, grey(6, 6, 0))
	assert.Less(t, different.OverallScore, same.OverallScore)
	assert.NotEmpty(t, different.Analysis.Issues)
}

func TestMetricInfo(t *testing.T) {
	e := NewEvaluator()
	info := e.GetMetricInfo()

	assert.ElementsMatch(t, e.Names(), []string{"contrast_ratio", "mae", "mse", "psnr", "sharpness", "ssim"})
	assert.True(t, info["psnr"].HigherBetter)
	assert.False(t, info["mse"].HigherBetter)
	assert.Equal(t, [2]float64{0, 1}, info["ssim"].Range)
}
