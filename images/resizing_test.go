package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrescale(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxDimension int
		want         image.Rectangle
		same         bool
	}{
		{name: "disabled", w: 100, h: 50, maxDimension: 0, want: image.Rect(0, 0, 100, 50), same: true},
		{name: "negative disables", w: 100, h: 50, maxDimension: -1, want: image.Rect(0, 0, 100, 50), same: true},
		{name: "already within", w: 40, h: 20, maxDimension: 40, want: image.Rect(0, 0, 40, 20), same: true},
		{name: "landscape", w: 100, h: 50, maxDimension: 20, want: image.Rect(0, 0, 20, 10)},
		{name: "portrait", w: 30, h: 120, maxDimension: 60, want: image.Rect(0, 0, 15, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := genNRGBA(tt.w, tt.h, 1)
			got := Prescale(img, tt.maxDimension)

			assert.Equal(t, tt.want, got.Bounds())
			if tt.same {
				assert.Same(t, img, got)
			} else {
				assert.NotSame(t, img, got)
			}
		})
	}
}

func TestPrescaleKeepsUniformColour(t *testing.T) {
	c := color.NRGBA{R: 90, G: 180, B: 30, A: 255}
	got := Prescale(uniformNRGBA(64, 64, c), 16)

	px := got.NRGBAAt(8, 8)
	assert.InDelta(t, int(c.R), int(px.R), 1)
	assert.InDelta(t, int(c.G), int(px.G), 1)
	assert.InDelta(t, int(c.B), int(px.B), 1)
}
