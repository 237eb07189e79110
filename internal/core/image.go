// Core raster data structure shared by every operator
package core

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"
)

// Channels is the number of interleaved bytes per pixel (R, G, B, A).
const Channels = 4

// maxDimension guards against accidental huge allocations
const maxDimension = 16384

// Buffer is an RGBA raster with 8-bit channels stored row-major.
// Operators never mutate a Buffer they receive; they allocate a new one.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// ImageMetadata describes a buffer and the file it came from or goes to
type ImageMetadata struct {
	Width  int
	Height int
	Format string
	Source string
}

// NewBuffer allocates a zeroed (transparent black) buffer.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// NewBlank allocates an opaque black buffer, used as a placeholder when a
// pipeline has no result to offer.
func NewBlank(width, height int) *Buffer {
	b := NewBuffer(width, height)
	for i := 3; i < len(b.Pix); i += Channels {
		b.Pix[i] = 255
	}
	return b
}

// NewUniform allocates a buffer filled with one colour.
func NewUniform(width, height int, r, g, b, a uint8) *Buffer {
	buf := NewBuffer(width, height)
	for i := 0; i < len(buf.Pix); i += Channels {
		buf.Pix[i] = r
		buf.Pix[i+1] = g
		buf.Pix[i+2] = b
		buf.Pix[i+3] = a
	}
	return buf
}

// FromPixels wraps an existing RGBA byte slice after validating its length.
// The slice is copied so the caller keeps ownership of pix.
func FromPixels(width, height int, pix []uint8) (*Buffer, error) {
	b := &Buffer{Width: width, Height: height, Pix: append([]uint8(nil), pix...)}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the buffer invariants
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidBuffer)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidBuffer, b.Width, b.Height)
	}
	if b.Width > maxDimension || b.Height > maxDimension {
		return fmt.Errorf("%w: image too large %dx%d (max: %d)", ErrInvalidBuffer, b.Width, b.Height, maxDimension)
	}
	if want := b.Width * b.Height * Channels; len(b.Pix) != want {
		return fmt.Errorf("%w: pixel length %d, want %d", ErrInvalidBuffer, len(b.Pix), want)
	}
	return nil
}

// Clone returns a deep copy
func (b *Buffer) Clone() *Buffer {
	return &Buffer{
		Width:  b.Width,
		Height: b.Height,
		Pix:    append([]uint8(nil), b.Pix...),
	}
}

// Offset returns the index of the red byte of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (x + y*b.Width) * Channels
}

// RGBA returns the channels of pixel (x, y).
func (b *Buffer) RGBA(x, y int) (r, g, bl, a uint8) {
	i := b.Offset(x, y)
	p := b.Pix[i : i+4 : i+4]
	return p[0], p[1], p[2], p[3]
}

// SetRGBA writes the channels of pixel (x, y).
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) {
	i := b.Offset(x, y)
	p := b.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = r, g, bl, a
}

// SameSize reports whether both buffers have identical dimensions.
func (b *Buffer) SameSize(o *Buffer) bool {
	return b != nil && o != nil && b.Width == o.Width && b.Height == o.Height
}

// Equal reports whether both buffers have the same size and bytes.
func (b *Buffer) Equal(o *Buffer) bool {
	if !b.SameSize(o) || len(b.Pix) != len(o.Pix) {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Bounds returns the buffer rectangle anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// CheckSameSize returns ErrDimensionMismatch unless every buffer matches the
// first one.
func CheckSameSize(buffers ...*Buffer) error {
	if len(buffers) == 0 {
		return nil
	}
	first := buffers[0]
	for i, b := range buffers {
		if b == nil {
			return fmt.Errorf("%w: buffer %d is nil", ErrInvalidBuffer, i)
		}
		if !first.SameSize(b) {
			return fmt.Errorf("%w: %dx%d vs %dx%d (buffer %d)",
				ErrDimensionMismatch, first.Width, first.Height, b.Width, b.Height, i)
		}
	}
	return nil
}

// ToNRGBA converts the buffer into a standard library image sharing no
// memory. Channels are not premultiplied, matching the buffer layout.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(b.Bounds())
	copy(img.Pix, b.Pix)
	return img
}

// FromImage converts any image into a Buffer with origin at (0, 0).
func FromImage(src image.Image) *Buffer {
	bounds := src.Bounds()
	out := NewBuffer(bounds.Dx(), bounds.Dy())
	if nrgba, ok := src.(*image.NRGBA); ok && nrgba.Stride == bounds.Dx()*Channels {
		copy(out.Pix, nrgba.Pix)
		return out
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, c.R, c.G, c.B, c.A)
		}
	}
	return out
}

// Metadata describes the buffer stored at source.
func (b *Buffer) Metadata(source string) ImageMetadata {
	return ImageMetadata{
		Width:  b.Width,
		Height: b.Height,
		Format: FormatFromPath(source),
		Source: source,
	}
}

// Fields returns the metadata as structured log fields.
func (m ImageMetadata) Fields() map[string]interface{} {
	return map[string]interface{}{
		"filepath": m.Source,
		"format":   m.Format,
		"width":    m.Width,
		"height":   m.Height,
	}
}

// FormatFromPath returns the lower-case file extension without the dot, or
// "unknown" when there is none.
func FormatFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "unknown"
	}
	return ext
}
