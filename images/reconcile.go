package images

import "image"

// CropRectFor computes the region of a width×height image whose dimensions are
// the largest multiples of scale that fit. The region is anchored at the
// top-left corner, or centred (floor division) when centre is true.
//
// Arguments:
//   - width, height: The source image dimensions.
//   - scale: The validated scale factor.
//   - centre: Whether to centre the region instead of anchoring it at (0,0).
//
// Returns:
//   - CropRect: The region to keep.
//   - error: A *DimensionError wrapping ErrImageTooSmall when either
//     dimension is smaller than one block.
//
// Example Usage:
// ```go
//
//	r, _ := CropRectFor(7, 5, 2, true)
//	fmt.Println(r) // {0 0 6 4}
//
// ```
func CropRectFor(width, height int, scale ScaleFactor, centre bool) (CropRect, error) {
	s := int(scale)
	newWidth := width - width%s
	newHeight := height - height%s

	if newWidth <= 0 || newHeight <= 0 {
		return CropRect{}, &DimensionError{Err: ErrImageTooSmall, Width: width, Height: height, Scale: scale}
	}

	rect := CropRect{Width: newWidth, Height: newHeight}
	if centre {
		rect.X = (width - newWidth) / 2
		rect.Y = (height - newHeight) / 2
	}

	return rect, nil
}

// Reconcile makes buf's dimensions divisible by scale.
//
// When both dimensions are already divisible the same buffer is returned
// without copying, together with a CropRect covering the whole image.
// Otherwise the image is cropped when allowCrop is true, and the cropped copy
// has its origin at (0,0).
//
// Arguments:
//   - buf: The decoded pixel buffer.
//   - scale: The validated scale factor.
//   - allowCrop: Whether cropping is permitted.
//   - centre: Whether the crop region is centred.
//
// Returns:
//   - *image.NRGBA: The divisible buffer.
//   - CropRect: The region of buf that the returned buffer holds.
//   - error: A *DimensionError wrapping ErrNotDivisible or ErrImageTooSmall.
func Reconcile(buf *image.NRGBA, scale ScaleFactor, allowCrop, centre bool) (*image.NRGBA, CropRect, error) {
	b := buf.Bounds()
	width, height := b.Dx(), b.Dy()

	if width == 0 || height == 0 {
		return nil, CropRect{}, &DimensionError{Err: ErrImageTooSmall, Width: width, Height: height, Scale: scale}
	}

	if scale.Divides(width, height) {
		return buf, CropRect{Width: width, Height: height}, nil
	}

	if !allowCrop {
		return nil, CropRect{}, &DimensionError{Err: ErrNotDivisible, Width: width, Height: height, Scale: scale}
	}

	rect, err := CropRectFor(width, height, scale, centre)
	if err != nil {
		return nil, CropRect{}, err
	}

	return Crop(buf, rect), rect, nil
}

// Crop copies the region rect of buf into a new buffer with origin (0,0).
// rect is relative to buf's bounds and must lie within them. Channel bytes are
// copied verbatim, row by row.
func Crop(buf *image.NRGBA, rect CropRect) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Width, rect.Height))
	src := rect.Rectangle(buf.Rect.Min)
	n := rect.Width * 4

	for y := 0; y < rect.Height; y++ {
		srcOff := buf.PixOffset(src.Min.X, src.Min.Y+y)
		dstOff := y * dst.Stride
		copy(dst.Pix[dstOff:dstOff+n], buf.Pix[srcOff:srcOff+n])
	}

	return dst
}
