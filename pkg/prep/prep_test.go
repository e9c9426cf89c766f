package prep

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/coloriage/pkg/feature"
)

func TestGridSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, cols   int
		wantW, wantH int
	}{
		{"landscape", 800, 400, 40, 40, 20},
		{"portrait", 300, 600, 30, 30, 60},
		{"columns above width", 10, 10, 40, 10, 10},
		{"tiny source keeps minimum", 2, 2, 40, 4, 4},
		{"very flat keeps minimum rows", 1000, 10, 40, 40, 4},
		{"zero columns clamps", 100, 100, 0, 4, 4},
		{"empty", 0, 0, 40, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, gh := GridSize(tt.w, tt.h, tt.cols)
			assert.Equal(t, tt.wantW, gw, "width")
			assert.Equal(t, tt.wantH, gh, "height")
		})
	}
}

func TestAdjustIdentity(t *testing.T) {
	img := solid(4, 4, color.NRGBA{R: 10, G: 100, B: 200, A: 255})
	out := Adjust(img, 0, 0)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestAdjustSaturationDesaturates(t *testing.T) {
	img := solid(2, 2, color.NRGBA{R: 220, G: 40, B: 40, A: 255})
	out := Adjust(img, 0, -100)
	c := out.NRGBAAt(0, 0)
	assert.InDelta(t, int(c.R), int(c.G), 2)
	assert.InDelta(t, int(c.G), int(c.B), 2)
}

func TestAdjustContrastSpreads(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 160, G: 160, B: 160, A: 255})

	out := Adjust(img, 60, 0)
	assert.Less(t, out.NRGBAAt(0, 0).R, uint8(100))
	assert.Greater(t, out.NRGBAAt(1, 0).R, uint8(160))
}

func TestAdjustClampsRange(t *testing.T) {
	img := solid(2, 2, color.NRGBA{R: 90, G: 120, B: 30, A: 255})
	assert.Equal(t, Adjust(img, 100, 0).Pix, Adjust(img, 500, 0).Pix)
}

func TestFlattenTransparentBecomesBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	out := Flatten(img, color.White)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(0, 0))
}

func TestPrepare(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 80, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 80; x++ {
			c := color.NRGBA{A: 255}
			if x >= 40 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	buf := Prepare(img, Options{Columns: 8})
	require.Equal(t, 8, buf.Width)
	require.Equal(t, 4, buf.Height)
	assert.Equal(t, feature.RGB{0, 0, 0}, buf.RGBAt(0))
	assert.Equal(t, feature.RGB{255, 255, 255}, buf.RGBAt(7))
}

func TestPrepareEmpty(t *testing.T) {
	buf := Prepare(image.NewNRGBA(image.Rect(0, 0, 0, 0)), Options{Columns: 40})
	assert.Zero(t, buf.Len())
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
