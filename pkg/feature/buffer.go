// Package feature converts pixels into clustering feature vectors and
// averages clustered pixels back into a color palette.
package feature

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// PixelBuffer is a row-major RGBA raster. Pix holds 4 bytes per pixel.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer wraps pix after checking its length against the size.
func NewPixelBuffer(w, h int, pix []uint8) (*PixelBuffer, error) {
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("feature: negative size %dx%d", w, h)
	}
	if len(pix) != 4*w*h {
		return nil, fmt.Errorf("feature: %d bytes for %dx%d pixels, want %d", len(pix), w, h, 4*w*h)
	}
	return &PixelBuffer{Width: w, Height: h, Pix: pix}, nil
}

// FromImage copies img into a PixelBuffer with non-premultiplied samples.
func FromImage(img image.Image) *PixelBuffer {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, 4*w*h)
	for y := 0; y < h; y++ {
		copy(pix[4*w*y:4*w*(y+1)], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+4*w])
	}
	return &PixelBuffer{Width: w, Height: h, Pix: pix}
}

// Len returns the number of pixels.
func (b *PixelBuffer) Len() int { return b.Width * b.Height }

// RGBAt returns the color channels of pixel i, ignoring alpha.
func (b *PixelBuffer) RGBAt(i int) RGB {
	o := 4 * i
	return RGB{b.Pix[o], b.Pix[o+1], b.Pix[o+2]}
}

// RGB is an 8-bit color triple.
type RGB [3]uint8

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return c.colorful().Hex()
}

// ParseHex parses a #rrggbb color.
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, err
	}
	return fromColorful(c), nil
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
}

func fromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{r, g, b}
}
