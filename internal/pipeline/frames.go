package pipeline

import (
	"fmt"

	"hybrid-image-generator/internal/algorithms"
	"hybrid-image-generator/internal/core"
)

// Point is a control point in image coordinates.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// FrameSource produces the ordered intermediate frames between two images,
// guided by corresponding control points. It must return steps+1 frames of
// the input dimensions, starting at a and ending at b.
type FrameSource interface {
	Frames(a *core.Buffer, pa []Point, b *core.Buffer, pb []Point, steps int) ([]*core.Buffer, error)
}

// FrameSourceFunc adapts a plain function to FrameSource.
type FrameSourceFunc func(a *core.Buffer, pa []Point, b *core.Buffer, pb []Point, steps int) ([]*core.Buffer, error)

func (f FrameSourceFunc) Frames(a *core.Buffer, pa []Point, b *core.Buffer, pb []Point, steps int) ([]*core.Buffer, error) {
	return f(a, pa, b, pb, steps)
}

// DissolveFrames cross-dissolves from a to b without warping. Control points
// are ignored.
type DissolveFrames struct{}

func (DissolveFrames) Frames(a *core.Buffer, _ []Point, b *core.Buffer, _ []Point, steps int) ([]*core.Buffer, error) {
	if steps < 1 {
		return nil, fmt.Errorf("dissolve frames: steps must be at least 1, got %d", steps)
	}
	if err := core.CheckSameSize(a, b); err != nil {
		return nil, fmt.Errorf("dissolve frames: %w", err)
	}

	frames := make([]*core.Buffer, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := 1 - float64(i)/float64(steps)
		frame, err := algorithms.ApplyBinary(a, b, algorithms.Dissolve(t))
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// CornerPoints returns the four corners of b, the control points of an
// identity warp.
func CornerPoints(b *core.Buffer) []Point {
	w := float64(b.Width - 1)
	h := float64(b.Height - 1)
	return []Point{{0, 0}, {w, 0}, {0, h}, {w, h}}
}

// MorphedHybrid generates frames between a and b and composites them with
// Cascade. Without control points there is nothing to morph, and the
// result is core.ErrNoResult.
func MorphedHybrid(source FrameSource, a *core.Buffer, pa []Point, b *core.Buffer, pb []Point, steps int, lowCutoff, cutoffPerPass float64) (*core.Buffer, error) {
	if len(pa) == 0 || len(pb) == 0 {
		return nil, core.ErrNoResult
	}
	if len(pa) != len(pb) {
		return nil, fmt.Errorf("control points: %d on the first image, %d on the second", len(pa), len(pb))
	}

	frames, err := source.Frames(a, pa, b, pb, steps)
	if err != nil {
		return nil, fmt.Errorf("generate frames: %w", err)
	}
	return Cascade(frames, lowCutoff, cutoffPerPass)
}
