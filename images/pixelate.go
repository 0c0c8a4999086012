package images

import (
	"image"

	"github.com/grouting/pixelate/images/kernels"
)

// Pixelator runs the block-averaging transform.
//
// The zero value is ready to use: it allocates a fresh output buffer per call
// and processes each image on the calling goroutine.
type Pixelator struct {
	// Pool, when set, supplies output buffers. Return them with Release.
	Pool *kernels.Pool
	// Parallel splits one image's block rows across goroutines. The output is
	// identical to the serial path.
	Parallel bool
}

// Pixelate replaces every scale×scale block of buf with the block's
// per-channel mean (truncating integer division).
//
// Both dimensions of buf must be divisible by scale; run Reconcile first.
//
// Arguments:
//   - buf: The divisible pixel buffer. It is not modified.
//   - scale: The validated scale factor.
//   - mode: Shrink for one pixel per block, KeepDimensions for full size output.
//
// Returns:
//   - *image.NRGBA: A new buffer with origin (0,0).
//
// @example
// out := (&Pixelator{}).Pixelate(buf, 4, KeepDimensions)
func (p *Pixelator) Pixelate(buf *image.NRGBA, scale ScaleFactor, mode OutputMode) *image.NRGBA {
	return kernels.BlockAverage(buf, kernels.Options{
		Block:    int(scale),
		Expand:   mode == KeepDimensions,
		Pool:     p.Pool,
		Parallel: p.Parallel,
	})
}

// Release returns an output buffer to the pool once the caller is done with it.
func (p *Pixelator) Release(img *image.NRGBA) {
	p.Pool.PutNRGBA(img)
}

// Pixelate runs the transform with a zero Pixelator.
func Pixelate(buf *image.NRGBA, scale ScaleFactor, mode OutputMode) *image.NRGBA {
	var p Pixelator

	return p.Pixelate(buf, scale, mode)
}

// Params bundles the per-image settings for Process.
type Params struct {
	Scale     ScaleFactor
	AllowCrop bool
	Centre    bool
	Mode      OutputMode
}

// Result is the outcome of Process.
type Result struct {
	// Image is the pixelated buffer.
	Image *image.NRGBA
	// Crop is the region of the input that was pixelated.
	Crop CropRect
	// Cropped is true when Crop is smaller than the input.
	Cropped bool
}

// Process reconciles buf with the scale factor and then pixelates it.
//
// Arguments:
//   - buf: The decoded pixel buffer.
//   - params: Scale factor, crop policy and output mode.
//
// Returns:
//   - *Result: The pixelated image and the crop that was applied.
//   - error: A *DimensionError from Reconcile.
func (p *Pixelator) Process(buf *image.NRGBA, params Params) (*Result, error) {
	adjusted, crop, err := Reconcile(buf, params.Scale, params.AllowCrop, params.Centre)
	if err != nil {
		return nil, err
	}

	b := buf.Bounds()

	return &Result{
		Image:   p.Pixelate(adjusted, params.Scale, params.Mode),
		Crop:    crop,
		Cropped: !crop.Covers(b.Dx(), b.Dy()),
	}, nil
}

// Process runs Reconcile and Pixelate with a zero Pixelator.
func Process(buf *image.NRGBA, params Params) (*Result, error) {
	var p Pixelator

	return p.Process(buf, params)
}
