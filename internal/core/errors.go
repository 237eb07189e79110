package core

import "errors"

var (
	// ErrDimensionMismatch is returned when buffers combined by one
	// operation differ in width or height.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidKernel is returned for empty, ragged or even-sized kernels.
	ErrInvalidKernel = errors.New("invalid kernel")

	// ErrEmptyFrameSequence signals that a cascade had no frames to work on.
	// It means "no result", callers typically substitute NewBlank.
	ErrEmptyFrameSequence = errors.New("empty frame sequence")

	// ErrInvalidBuffer is returned for nil or malformed buffers.
	ErrInvalidBuffer = errors.New("invalid buffer")
)

// ErrNoResult is the name the pipeline uses for an empty cascade.
var ErrNoResult = ErrEmptyFrameSequence
