// Spatial convolution with a mirrored margin
package algorithms

import (
	"fmt"
	"math"

	"hybrid-image-generator/internal/core"
)

// Kernel is a matrix of weights indexed as Kernel[kx][ky], where kx runs
// along the image x axis. Both dimensions must be odd so the centre is
// unambiguous. Weights are not required to be normalized.
type Kernel [][]float64

// Validate rejects empty, ragged and even-sized kernels.
func (k Kernel) Validate() error {
	if len(k) == 0 || len(k[0]) == 0 {
		return fmt.Errorf("%w: empty kernel", core.ErrInvalidKernel)
	}
	if len(k)%2 == 0 || len(k[0])%2 == 0 {
		return fmt.Errorf("%w: even size %dx%d", core.ErrInvalidKernel, len(k), len(k[0]))
	}
	for i, col := range k {
		if len(col) != len(k[0]) {
			return fmt.Errorf("%w: column %d has %d weights, want %d", core.ErrInvalidKernel, i, len(col), len(k[0]))
		}
	}
	return nil
}

// Radius returns the half-widths of a validated kernel.
func (k Kernel) Radius() (rx, ry int) {
	return (len(k) - 1) / 2, (len(k[0]) - 1) / 2
}

// Sum adds every weight.
func (k Kernel) Sum() float64 {
	var s float64
	for _, col := range k {
		for _, w := range col {
			s += w
		}
	}
	return s
}

// GaussianMatrix returns a size x size Gaussian kernel normalized to sum to
// 1. The centre is size/2 (integer division), so size must be odd.
func GaussianMatrix(size int, sigma float64) (Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: gaussian size %d must be odd and positive", core.ErrInvalidKernel, size)
	}
	if sigma <= 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("%w: gaussian sigma %v must be positive", core.ErrInvalidKernel, sigma)
	}

	mean := size / 2
	twoSigmaSq := 2 * sigma * sigma
	kernel := make(Kernel, size)
	sum := 0.0
	for x := 0; x < size; x++ {
		kernel[x] = make([]float64, size)
		dx := float64(x - mean)
		for y := 0; y < size; y++ {
			dy := float64(y - mean)
			w := math.Exp(-(dx*dx + dy*dy) / twoSigmaSq)
			kernel[x][y] = w
			sum += w
		}
	}

	for x := range kernel {
		for y := range kernel[x] {
			kernel[x][y] /= sum
		}
	}
	return kernel, nil
}

// LaplacianOfGaussian returns the fixed 5x5 discrete Laplacian-of-Gaussian
// kernel. Its weights sum to zero, so flat regions map to zero response.
func LaplacianOfGaussian() Kernel {
	return Kernel{
		{0, 0, -1, 0, 0},
		{0, -1, -2, -1, 0},
		{-1, -2, 16, -2, -1},
		{0, -1, -2, -1, 0},
		{0, 0, -1, 0, 0},
	}
}

// Convolution is a UnaryOp applying Kernel around each pixel. Taps that fall
// outside the source are read from a mirrored margin built for that source.
type Convolution struct {
	Kernel Kernel
	// ShiftValues adds 128 after accumulation so signed responses are visible.
	ShiftValues bool

	margin *core.Buffer
	rx, ry int
}

// NewConvolution validates the kernel and builds the mirrored margin of src.
func NewConvolution(src *core.Buffer, kernel Kernel, shiftValues bool) (*Convolution, error) {
	if err := kernel.Validate(); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	rx, ry := kernel.Radius()
	return &Convolution{
		Kernel:      kernel,
		ShiftValues: shiftValues,
		margin:      MirrorMargin(src, rx, ry),
		rx:          rx,
		ry:          ry,
	}, nil
}

// Pixel accumulates kernel[kx][ky] * pixel(x+kx-rx, y+ky-ry).
func (c *Convolution) Pixel(x, y int, src *core.Buffer) RGB {
	var acc RGB
	for kx := 0; kx <= 2*c.rx; kx++ {
		col := c.Kernel[kx]
		xx := x + kx - c.rx
		for ky := 0; ky <= 2*c.ry; ky++ {
			w := col[ky]
			if w == 0 {
				continue
			}
			yy := y + ky - c.ry
			var p RGB
			if xx < 0 || xx >= src.Width || yy < 0 || yy >= src.Height {
				p = sample(c.margin, xx+c.rx, yy+c.ry)
			} else {
				p = sample(src, xx, yy)
			}
			acc.R += w * p.R
			acc.G += w * p.G
			acc.B += w * p.B
		}
	}
	if c.ShiftValues {
		acc.R += 128
		acc.G += 128
		acc.B += 128
	}
	return acc
}

// Convolve applies kernel to every pixel of src.
func Convolve(src *core.Buffer, kernel Kernel, shiftValues bool) (*core.Buffer, error) {
	conv, err := NewConvolution(src, kernel, shiftValues)
	if err != nil {
		return nil, fmt.Errorf("convolve: %w", err)
	}
	return Apply(src, Unary{Name: "convolve", Op: conv}), nil
}

// MirrorMargin returns a copy of src padded by rx columns and ry rows on
// each side. Padding reflects about the edge pixel without repeating it.
func MirrorMargin(src *core.Buffer, rx, ry int) *core.Buffer {
	w := src.Width + 2*rx
	h := src.Height + 2*ry
	out := core.NewBuffer(w, h)
	for py := 0; py < h; py++ {
		sy := reflectIndex(py-ry, src.Height)
		for px := 0; px < w; px++ {
			sx := reflectIndex(px-rx, src.Width)
			si := src.Offset(sx, sy)
			di := out.Offset(px, py)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

// reflectIndex folds i into [0, n) by repeated reflection about the ends.
func reflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
