package pipeline

import (
	"fmt"

	"github.com/grouting/pixelate/images"
	"github.com/pkg/errors"
)

// ErrorPolicy decides what a run does when one image fails.
type ErrorPolicy int

const (
	// FailFast stops the run at the first failure and returns it.
	FailFast ErrorPolicy = iota
	// SkipAndContinue logs the failure, skips the image and carries on.
	SkipAndContinue
)

// String implements fmt.Stringer.
func (p ErrorPolicy) String() string {
	if p == SkipAndContinue {
		return "skip-and-continue"
	}
	return "fail-fast"
}

// Stage names the step of the per-image pipeline that failed.
type Stage string

const (
	StageOpen     Stage = "open"
	StageDecode   Stage = "decode"
	StagePixelate Stage = "pixelate"
	StageSave     Stage = "save"
)

// ImageError is the failure of one image.
type ImageError struct {
	Stage Stage
	Path  string
	Err   error
}

// Error implements the error interface.
func (e *ImageError) Error() string {
	switch e.Stage {
	case StageOpen:
		return fmt.Sprintf("could not open file at '%s': %v", e.Path, e.Err)
	case StageDecode:
		return fmt.Sprintf("could not decode image at '%s': %v", e.Path, e.Err)
	case StagePixelate:
		if errors.Is(e.Err, images.ErrNotDivisible) {
			return fmt.Sprintf("image dimensions at '%s' were not divisible by the scale factor. "+
				"you can force crop the image using the -f flag", e.Path)
		}
		if errors.Is(e.Err, images.ErrImageTooSmall) {
			return fmt.Sprintf("image at '%s' is too small for the scale factor: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("could not pixelate image at '%s': %v", e.Path, e.Err)
	case StageSave:
		return fmt.Sprintf("could not save image at '%s': %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("%s '%s': %v", e.Stage, e.Path, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *ImageError) Unwrap() error {
	return e.Err
}
