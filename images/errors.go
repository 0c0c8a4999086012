package images

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds returned by the pixelation core. Match them with errors.Is.
var (
	// ErrInvalidScaleFactor is returned when a scale factor is outside [2, 8].
	ErrInvalidScaleFactor = errors.New("scale factor must be between 2 and 8")
	// ErrNotDivisible is returned when the image dimensions are not multiples of
	// the scale factor and cropping is not allowed.
	ErrNotDivisible = errors.New("image dimensions must be divisible by scale factor")
	// ErrImageTooSmall is returned when cropping would leave no complete block.
	ErrImageTooSmall = errors.New("image is smaller than one block")
)

// DimensionError describes why an image could not be reconciled with a scale factor.
type DimensionError struct {
	// Err is the error kind, ErrNotDivisible or ErrImageTooSmall.
	Err error
	// Width and Height are the dimensions of the rejected image.
	Width, Height int
	// Scale is the scale factor the image was checked against.
	Scale ScaleFactor
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: %dx%d image, scale factor %d", e.Err, e.Width, e.Height, int(e.Scale))
}

// Unwrap returns the error kind so errors.Is can match the sentinel.
func (e *DimensionError) Unwrap() error {
	return e.Err
}
