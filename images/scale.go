package images

import (
	"fmt"

	"github.com/pkg/errors"
)

// ScaleFactor is the edge length, in pixels, of one pixelation block.
type ScaleFactor int

const (
	// MinScaleFactor is the smallest accepted block edge length.
	MinScaleFactor ScaleFactor = 2
	// MaxScaleFactor is the largest accepted block edge length.
	MaxScaleFactor ScaleFactor = 8
)

// ParseScaleFactor converts a raw integer into a validated ScaleFactor.
//
// Arguments:
//   - v: The requested block edge length.
//
// Returns:
//   - ScaleFactor: The validated scale factor.
//   - error: ErrInvalidScaleFactor (wrapped) when v is outside [2, 8].
func ParseScaleFactor(v int) (ScaleFactor, error) {
	s := ScaleFactor(v)
	if err := s.Validate(); err != nil {
		return 0, err
	}

	return s, nil
}

// Validate reports whether the scale factor lies in [MinScaleFactor, MaxScaleFactor].
func (s ScaleFactor) Validate() error {
	if s < MinScaleFactor || s > MaxScaleFactor {
		return errors.Wrapf(ErrInvalidScaleFactor, "got %d", int(s))
	}

	return nil
}

// Divides reports whether both dimensions are exact multiples of the scale factor.
func (s ScaleFactor) Divides(width, height int) bool {
	return width%int(s) == 0 && height%int(s) == 0
}

// OutputMode selects the size of the pixelated output.
type OutputMode int

const (
	// Shrink emits one pixel per block (width/scale × height/scale).
	Shrink OutputMode = iota
	// KeepDimensions emits an image the size of the input, each block filled uniformly.
	KeepDimensions
)

// String implements fmt.Stringer.
func (m OutputMode) String() string {
	switch m {
	case Shrink:
		return "shrink"
	case KeepDimensions:
		return "keep-dimensions"
	default:
		return fmt.Sprintf("OutputMode(%d)", int(m))
	}
}

// ModeFor maps the keep-dimensions flag onto an OutputMode.
func ModeFor(keepDimensions bool) OutputMode {
	if keepDimensions {
		return KeepDimensions
	}

	return Shrink
}
