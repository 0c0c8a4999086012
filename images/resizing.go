package images

import (
	"image"

	"github.com/nfnt/resize"
)

// Prescale shrinks img so that neither side exceeds maxDimension, keeping the
// aspect ratio. It runs before reconciliation, so the divisibility check sees
// the pre-scaled size.
//
// Arguments:
//   - img: The decoded image.
//   - maxDimension: The largest allowed width or height. Values <= 0 disable pre-scaling.
//
// Returns:
//   - *image.NRGBA: img itself when no resize is needed, otherwise a new
//     Lanczos3-resampled buffer.
//
// @example
// small := Prescale(buf, 1024)
func Prescale(img *image.NRGBA, maxDimension int) *image.NRGBA {
	if maxDimension <= 0 {
		return img
	}

	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}

	return ToNRGBA(resize.Thumbnail(uint(maxDimension), uint(maxDimension), img, resize.Lanczos3))
}
