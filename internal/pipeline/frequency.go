// Frequency decomposition and hybrid composition
package pipeline

import (
	"errors"
	"fmt"

	"hybrid-image-generator/internal/algorithms"
	"hybrid-image-generator/internal/core"
	"hybrid-image-generator/internal/layers"
)

// HighPassMode selects how the high band is extracted.
type HighPassMode string

const (
	// HighPassLaplacian blurs then applies the 5x5 Laplacian-of-Gaussian,
	// recentred around 128.
	HighPassLaplacian HighPassMode = "laplacian"
	// HighPassResidual subtracts the blurred copy from the grayscale
	// original, recentred around 128.
	HighPassResidual HighPassMode = "residual"
)

// ParseHighPassMode validates a mode name.
func ParseHighPassMode(name string) (HighPassMode, error) {
	switch mode := HighPassMode(name); mode {
	case HighPassLaplacian, HighPassResidual:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown high-pass mode: %s", name)
	}
}

// LowPass returns the grayscale copy of img blurred at cutoff. A cutoff
// below 1 only converts to grayscale.
func LowPass(img *core.Buffer, cutoff float64) *core.Buffer {
	return algorithms.StackBlurRGB(algorithms.ToGrayscale(img), cutoff)
}

// HighPass extracts the Laplacian-of-Gaussian edge band of img.
func HighPass(img *core.Buffer, cutoff float64) (*core.Buffer, error) {
	return HighPassWithMode(img, cutoff, HighPassLaplacian)
}

// HighPassWithMode extracts the high band of img using mode.
func HighPassWithMode(img *core.Buffer, cutoff float64, mode HighPassMode) (*core.Buffer, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	switch mode {
	case HighPassLaplacian:
		return algorithms.Convolve(LowPass(img, cutoff), algorithms.LaplacianOfGaussian(), true)
	case HighPassResidual:
		return residual(img, cutoff)
	default:
		return nil, fmt.Errorf("unknown high-pass mode: %s", mode)
	}
}

// HybridImage overlays the high band on the low band.
func HybridImage(low, high *core.Buffer) (*core.Buffer, error) {
	return algorithms.ApplyBinary(low, high, algorithms.Overlay())
}

// Hybrid builds the classic two-image hybrid: the low band of a combined
// with the high band of b.
func Hybrid(a, b *core.Buffer, lowCutoff, highCutoff float64, mode HighPassMode) (*core.Buffer, error) {
	if err := core.CheckSameSize(a, b); err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}

	high, err := HighPassWithMode(b, highCutoff, mode)
	if err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}
	return HybridImage(LowPass(a, lowCutoff), high)
}

// Cascade composites an ordered frame sequence into one multi-scale image.
// The sequence is walked in reverse: the first frame supplies the low band
// at lowCutoff, and the i-th frame from the end contributes a band-pass
// residual at cutoffPerPass*(i+1), overlaid onto the running result. The
// first frame therefore dominates coarse structure and frames further along
// add finer detail.
//
// An empty sequence returns core.ErrEmptyFrameSequence.
func Cascade(frames []*core.Buffer, lowCutoff, cutoffPerPass float64) (*core.Buffer, error) {
	if len(frames) == 0 {
		return nil, core.ErrEmptyFrameSequence
	}
	if err := core.CheckSameSize(frames...); err != nil {
		return nil, fmt.Errorf("cascade: %w", err)
	}
	for i, f := range frames {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("cascade frame %d: %w", i, err)
		}
	}

	base := LowPass(frames[0], lowCutoff)

	stack := layers.NewLayerStack()
	for i := 0; i < len(frames)-1; i++ {
		frame := len(frames) - 1 - i
		band, err := residual(frames[frame], cutoffPerPass*float64(i+1))
		if err != nil {
			return nil, fmt.Errorf("cascade frame %d: %w", frame, err)
		}
		stack.AddImageLayer(fmt.Sprintf("residual_%d", i), band, layers.BlendOverlay)
	}

	result, err := stack.ProcessLayers(base)
	if err != nil {
		return nil, fmt.Errorf("cascade: %w", err)
	}
	return result, nil
}

// CascadeOrBlank runs Cascade and substitutes an opaque black buffer of
// width x height when there were no frames.
func CascadeOrBlank(frames []*core.Buffer, lowCutoff, cutoffPerPass float64, width, height int) (*core.Buffer, error) {
	result, err := Cascade(frames, lowCutoff, cutoffPerPass)
	if errors.Is(err, core.ErrEmptyFrameSequence) {
		return core.NewBlank(width, height), nil
	}
	return result, err
}

// residual is gray(img) - LowPass(img, radius) + 128.
func residual(img *core.Buffer, radius float64) (*core.Buffer, error) {
	gray := algorithms.ToGrayscale(img)
	return algorithms.ApplyBinary(gray, LowPass(gray, radius), algorithms.Subtract(false, 128))
}
