// Concrete implementations of quality metrics
package metrics

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"hybrid-image-generator/internal/algorithms"
	"hybrid-image-generator/internal/core"
)

// PSNR implements Peak Signal-to-Noise Ratio metric
type PSNR struct{}

// NewPSNR creates a new PSNR metric
func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(original, processed *core.Buffer) (float64, error) {
	mse, err := NewMSE().Calculate(original, processed)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}

	maxVal := 255.0
	return 20 * math.Log10(maxVal/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string {
	return "PSNR"
}

func (p *PSNR) GetDescription() string {
	return "Peak Signal-to-Noise Ratio - measures image quality"
}

func (p *PSNR) GetRange() (float64, float64) {
	return 0, 100 // Practical range, can go higher
}

func (p *PSNR) IsHigherBetter() bool {
	return true
}

// SSIM implements a global Structural Similarity Index over luminance.
// Means and variances are taken over the whole image rather than a sliding
// window.
type SSIM struct{}

// NewSSIM creates a new SSIM metric
func NewSSIM() *SSIM {
	return &SSIM{}
}

func (s *SSIM) Calculate(original, processed *core.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	const (
		C1 = 6.5025  // (0.01 * 255)^2
		C2 = 58.5225 // (0.03 * 255)^2
	)

	l1 := luminance(original)
	l2 := luminance(processed)

	mu1, err := stats.Mean(l1)
	if err != nil {
		return 0, err
	}
	mu2, err := stats.Mean(l2)
	if err != nil {
		return 0, err
	}
	var1, err := stats.PopulationVariance(l1)
	if err != nil {
		return 0, err
	}
	var2, err := stats.PopulationVariance(l2)
	if err != nil {
		return 0, err
	}
	cov, err := stats.CovariancePopulation(l1, l2)
	if err != nil {
		return 0, err
	}

	numerator := (2*mu1*mu2 + C1) * (2*cov + C2)
	denominator := (mu1*mu1 + mu2*mu2 + C1) * (var1 + var2 + C2)
	return numerator / denominator, nil
}

func (s *SSIM) GetName() string {
	return "SSIM"
}

func (s *SSIM) GetDescription() string {
	return "Structural Similarity Index - measures perceptual quality"
}

func (s *SSIM) GetRange() (float64, float64) {
	return 0, 1
}

func (s *SSIM) IsHigherBetter() bool {
	return true
}

// MSE implements Mean Squared Error metric over luminance
type MSE struct{}

// NewMSE creates a new MSE metric
func NewMSE() *MSE {
	return &MSE{}
}

func (m *MSE) Calculate(original, processed *core.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	l1 := luminance(original)
	l2 := luminance(processed)
	squared := make([]float64, len(l1))
	for i := range l1 {
		d := l1[i] - l2[i]
		squared[i] = d * d
	}
	return stats.Mean(squared)
}

func (m *MSE) GetName() string {
	return "MSE"
}

func (m *MSE) GetDescription() string {
	return "Mean Squared Error - lower is better"
}

func (m *MSE) GetRange() (float64, float64) {
	return 0, 65025
}

func (m *MSE) IsHigherBetter() bool {
	return false
}

// MAE implements Mean Absolute Error over luminance
type MAE struct{}

// NewMAE creates a new MAE metric
func NewMAE() *MAE {
	return &MAE{}
}

func (m *MAE) Calculate(original, processed *core.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	l1 := luminance(original)
	l2 := luminance(processed)
	abs := make([]float64, len(l1))
	for i := range l1 {
		abs[i] = math.Abs(l1[i] - l2[i])
	}
	return stats.Mean(abs)
}

func (m *MAE) GetName() string {
	return "MAE"
}

func (m *MAE) GetDescription() string {
	return "Mean Absolute Error - average luminance change"
}

func (m *MAE) GetRange() (float64, float64) {
	return 0, 255
}

func (m *MAE) IsHigherBetter() bool {
	return false
}

// ContrastRatio compares the luminance standard deviation of both images
type ContrastRatio struct{}

// NewContrastRatio creates a new contrast ratio metric
func NewContrastRatio() *ContrastRatio {
	return &ContrastRatio{}
}

func (c *ContrastRatio) Calculate(original, processed *core.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	origContrast, err := stats.StandardDeviationPopulation(luminance(original))
	if err != nil {
		return 0, err
	}
	procContrast, err := stats.StandardDeviationPopulation(luminance(processed))
	if err != nil {
		return 0, err
	}

	if origContrast == 0 {
		return 1.0, nil
	}
	return procContrast / origContrast, nil
}

func (c *ContrastRatio) GetName() string {
	return "Contrast Ratio"
}

func (c *ContrastRatio) GetDescription() string {
	return "Ratio of contrast preservation"
}

func (c *ContrastRatio) GetRange() (float64, float64) {
	return 0, 2
}

func (c *ContrastRatio) IsHigherBetter() bool {
	return true
}

// Sharpness compares the variance of the Laplacian-of-Gaussian response
type Sharpness struct{}

// NewSharpness creates a new sharpness metric
func NewSharpness() *Sharpness {
	return &Sharpness{}
}

func (s *Sharpness) Calculate(original, processed *core.Buffer) (float64, error) {
	if err := checkPair(original, processed); err != nil {
		return 0, err
	}

	origSharpness, err := s.calculateSharpness(original)
	if err != nil {
		return 0, err
	}
	procSharpness, err := s.calculateSharpness(processed)
	if err != nil {
		return 0, err
	}

	if origSharpness == 0 {
		return 1.0, nil
	}
	return procSharpness / origSharpness, nil
}

func (s *Sharpness) calculateSharpness(input *core.Buffer) (float64, error) {
	edges, err := algorithms.Convolve(algorithms.ToGrayscale(input), algorithms.LaplacianOfGaussian(), true)
	if err != nil {
		return 0, err
	}
	return stats.PopulationVariance(luminance(edges))
}

func (s *Sharpness) GetName() string {
	return "Sharpness"
}

func (s *Sharpness) GetDescription() string {
	return "Edge preservation measure"
}

func (s *Sharpness) GetRange() (float64, float64) {
	return 0, 2
}

func (s *Sharpness) IsHigherBetter() bool {
	return true
}

// luminance returns the channel average of every pixel, matching the
// grayscale operator.
func luminance(b *core.Buffer) stats.Float64Data {
	out := make(stats.Float64Data, 0, b.Width*b.Height)
	for i := 0; i < len(b.Pix); i += core.Channels {
		out = append(out, (float64(b.Pix[i])+float64(b.Pix[i+1])+float64(b.Pix[i+2]))/3)
	}
	return out
}

func checkPair(original, processed *core.Buffer) error {
	if err := original.Validate(); err != nil {
		return fmt.Errorf("original: %w", err)
	}
	if err := processed.Validate(); err != nil {
		return fmt.Errorf("processed: %w", err)
	}
	return core.CheckSameSize(original, processed)
}
