package images

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/gen2brain/jpegn"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ImageFormat represents supported image formats
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatWebP
	FormatPNG
	FormatGIF
	FormatBMP
	FormatTIFF
)

// ErrUnsupportedFormat is returned for file extensions with no codec.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var formatNames = map[ImageFormat]string{
	FormatJPEG: "jpeg",
	FormatWebP: "webp",
	FormatPNG:  "png",
	FormatGIF:  "gif",
	FormatBMP:  "bmp",
	FormatTIFF: "tiff",
}

var extensionFormats = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".webp": FormatWebP,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

// String implements fmt.Stringer.
func (f ImageFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// FormatFromPath infers the image format from a file extension (case-insensitive).
func FormatFromPath(path string) (ImageFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}

	return 0, errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
}

// IsSupportedPath reports whether FormatFromPath recognises path.
func IsSupportedPath(path string) bool {
	_, err := FormatFromPath(path)
	return err == nil
}

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// AutoRotate applies the JPEG EXIF orientation tag. Ignored for other formats.
	AutoRotate bool
}

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// JPEGQuality is in [1, 100]. Zero selects jpeg.DefaultQuality.
	JPEGQuality int
	// WebPQuality is in [0, 100]. Ignored when WebPLossless is set.
	WebPQuality float32
	// WebPLossless selects lossless WebP output.
	WebPLossless bool
}

// Decode reads an image of the given format and normalises it to *image.NRGBA.
//
// Arguments:
//   - r: The encoded image stream.
//   - format: The codec to use.
//   - opts: Decoder options.
//
// Returns:
//   - *image.NRGBA: The decoded pixel buffer with origin (0,0).
//   - error: An error if the stream cannot be decoded.
func Decode(r io.Reader, format ImageFormat, opts DecodeOptions) (*image.NRGBA, error) {
	var (
		img image.Image
		err error
	)

	switch format {
	case FormatJPEG:
		img, err = jpegn.Decode(r, &jpegn.Options{ToRGBA: true, AutoRotate: opts.AutoRotate})
	case FormatWebP:
		img, err = webp.Decode(r)
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatGIF:
		img, err = gif.Decode(r)
	case FormatBMP:
		img, err = bmp.Decode(r)
	case FormatTIFF:
		img, err = tiff.Decode(r)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %d", int(format))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", format)
	}

	return ToNRGBA(img), nil
}

// Encode writes img in the given format.
//
// Arguments:
//   - w: The destination stream.
//   - img: The image to encode.
//   - format: The codec to use.
//   - opts: Encoder options.
//
// Returns:
//   - error: An error if encoding fails.
func Encode(w io.Writer, img image.Image, format ImageFormat, opts EncodeOptions) error {
	var err error

	switch format {
	case FormatJPEG:
		quality := opts.JPEGQuality
		if quality == 0 {
			quality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		err = webp.Encode(w, img, &webp.Options{Lossless: opts.WebPLossless, Quality: opts.WebPQuality})
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatGIF:
		// Src maps each pixel to its nearest palette entry, so uniform blocks
		// stay uniform. The default Floyd-Steinberg drawer would dither them.
		err = gif.Encode(w, img, &gif.Options{NumColors: 256, Drawer: draw.Src})
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "format %d", int(format))
	}
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", format)
	}

	return nil
}

// ToNRGBA returns img as a non-premultiplied RGBA buffer with origin (0,0).
// An *image.NRGBA already at the origin is returned as is; anything else is
// converted into a new buffer.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)

	return dst
}
