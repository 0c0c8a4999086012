package images

import (
	"image"
	"image/color"
	"math/rand"
)

// genNRGBA returns a w×h buffer filled with deterministic pseudo-random pixels.
func genNRGBA(w, h int, seed int64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(seed))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// genOpaqueNRGBA is genNRGBA with every alpha byte set to 255.
func genOpaqueNRGBA(w, h int, seed int64) *image.NRGBA {
	img := genNRGBA(w, h, seed)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// uniformNRGBA returns a w×h buffer where every pixel is c.
func uniformNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
