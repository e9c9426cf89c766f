// Package prep turns a decoded image into the small working raster that
// quantization runs on: flatten transparency, shrink to the grid resolution,
// then apply the contrast and saturation pre-adjustment.
package prep

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/coloriage/pkg/feature"
)

// MinGridSide is the smallest grid dimension produced by GridSize.
const MinGridSide = 4

// Options controls preparation.
type Options struct {
	// Columns is the requested grid width. Rows follow the aspect ratio.
	Columns int
	// Contrast and Saturation are percentages in [-100, 100].
	Contrast   int
	Saturation int
	// Background replaces transparent areas. Nil means white.
	Background color.Color
}

// GridSize derives the working grid from the image size and the requested
// column count. Both sides are at least MinGridSide and never exceed the
// source size when the source itself is at least that large.
func GridSize(imgW, imgH, columns int) (int, int) {
	if imgW <= 0 || imgH <= 0 {
		return 0, 0
	}
	ratio := float64(imgH) / float64(imgW)
	gw := clamp(min(columns, imgW), MinGridSide, max(MinGridSide, imgW))
	gh := clamp(int(math.Round(float64(gw)*ratio)), MinGridSide, max(MinGridSide, imgH))
	return gw, gh
}

// Prepare runs the whole preparation chain and returns the working raster.
// An empty image yields an empty buffer.
func Prepare(img image.Image, opts Options) *feature.PixelBuffer {
	b := img.Bounds()
	gw, gh := GridSize(b.Dx(), b.Dy(), opts.Columns)
	if gw == 0 {
		return &feature.PixelBuffer{}
	}
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	small := Downsample(Flatten(img, bg), gw, gh)
	return feature.FromImage(Adjust(small, opts.Contrast, opts.Saturation))
}

// Flatten composites img over an opaque background.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	base := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(base, img, image.Pt(0, 0), 1.0)
}

// Downsample resizes img to exactly w×h with area averaging.
func Downsample(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Box)
}

// Adjust applies contrast then saturation. Both are clamped to [-100, 100];
// zero values leave the pixels untouched.
func Adjust(img image.Image, contrast, saturation int) *image.NRGBA {
	contrast = clamp(contrast, -100, 100)
	saturation = clamp(saturation, -100, 100)
	if contrast == 0 && saturation == 0 {
		return imaging.Clone(img)
	}

	var filters []gift.Filter
	if contrast != 0 {
		filters = append(filters, gift.Contrast(float32(contrast)))
	}
	if saturation != 0 {
		filters = append(filters, gift.Saturation(float32(saturation)))
	}
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
