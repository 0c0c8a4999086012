// Package images - Image processing utilities
package images

import "image"

// CropRect is the region of a source image that survives reconciliation.
//
// X and Y are the offset of the region inside the source image; Width and
// Height are its size and are always multiples of the scale factor used to
// compute it.
type CropRect struct {
	X, Y          int
	Width, Height int
}

// Rectangle returns the region as an image.Rectangle relative to a source
// whose bounds start at origin.
//
// Arguments:
//   - origin: The Min point of the source image bounds.
//
// Returns:
//   - image.Rectangle: The crop region in the source image's coordinate space.
//
// Example Usage:
// ```go
//
//	r := CropRect{X: 1, Y: 0, Width: 4, Height: 4}.Rectangle(image.Point{})
//	fmt.Println(r) // (1,0)-(5,4)
//
// ```
func (c CropRect) Rectangle(origin image.Point) image.Rectangle {
	min := origin.Add(image.Point{X: c.X, Y: c.Y})

	return image.Rectangle{Min: min, Max: min.Add(image.Point{X: c.Width, Y: c.Height})}
}

// Empty reports whether the region contains no pixels.
func (c CropRect) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// Within reports whether the region fits inside a width×height image.
func (c CropRect) Within(width, height int) bool {
	return c.X >= 0 && c.Y >= 0 && c.X+c.Width <= width && c.Y+c.Height <= height
}

// Covers reports whether the region is the whole of a width×height image.
func (c CropRect) Covers(width, height int) bool {
	return c.X == 0 && c.Y == 0 && c.Width == width && c.Height == height
}
