package feature

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/coloriage/pkg/quantize"
)

func TestNewPixelBuffer(t *testing.T) {
	_, err := NewPixelBuffer(2, 2, make([]uint8, 16))
	require.NoError(t, err)

	_, err = NewPixelBuffer(2, 2, make([]uint8, 15))
	require.Error(t, err)

	_, err = NewPixelBuffer(-1, 2, nil)
	require.Error(t, err)
}

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 13, 12))
	img.SetNRGBA(10, 10, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(12, 11, color.NRGBA{B: 200, A: 255})

	buf := FromImage(img)
	require.Equal(t, 3, buf.Width)
	require.Equal(t, 2, buf.Height)
	assert.Len(t, buf.Pix, 24)
	assert.Equal(t, RGB{255, 0, 0}, buf.RGBAt(0))
	assert.Equal(t, RGB{0, 0, 200}, buf.RGBAt(5))
}

func TestRGBHex(t *testing.T) {
	assert.Equal(t, "#ff8000", RGB{255, 128, 0}.Hex())
	assert.Equal(t, []string{"#000000", "#ffffff"}, Palette{{0, 0, 0}, {255, 255, 255}}.Hex())

	c, err := ParseHex("#dc1e1e")
	require.NoError(t, err)
	assert.Equal(t, RGB{220, 30, 30}, c)
	_, err = ParseHex("red")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeRGB, false},
		{"rgb", ModeRGB, false},
		{" HSL ", ModeHSL, false},
		{"lab", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeVector(t *testing.T) {
	assert.Equal(t, quantize.Vector{1, 2, 3}, ModeRGB.Vector(RGB{1, 2, 3}))

	grey := ModeHSL.Vector(RGB{128, 128, 128})
	require.Len(t, grey, 4)
	assert.InDelta(t, 0, grey[0], 1e-9)
	assert.InDelta(t, 0, grey[1], 1e-9)
	assert.InDelta(t, 0, grey[2], 1e-9)
}

func TestModeHSLSeparatesHuesOfEqualLightness(t *testing.T) {
	red := ModeHSL.Vector(RGB{200, 40, 40})
	green := ModeHSL.Vector(RGB{40, 200, 40})
	darkRed := ModeHSL.Vector(RGB{120, 24, 24})

	hueGap := dist(red, green)
	lightGap := dist(red, darkRed)
	assert.Greater(t, hueGap, lightGap)
}

func TestModeColorRoundTrip(t *testing.T) {
	for _, c := range []RGB{{0, 0, 0}, {255, 255, 255}, {200, 40, 40}, {10, 120, 240}} {
		for _, m := range []Mode{ModeRGB, ModeHSL} {
			got := m.Color(m.Vector(c))
			for i := range c {
				assert.InDelta(t, float64(c[i]), float64(got[i]), 1, "mode %s color %v", m, c)
			}
		}
	}
}

func TestMapSharesVectorsForEqualColors(t *testing.T) {
	buf, err := NewPixelBuffer(3, 1, []uint8{
		5, 6, 7, 255,
		5, 6, 7, 255,
		9, 9, 9, 255,
	})
	require.NoError(t, err)

	vs := ModeRGB.Map(buf)
	require.Len(t, vs, 3)
	assert.Equal(t, vs[0], vs[1])
	assert.Equal(t, quantize.Vector{9, 9, 9}, vs[2])
}

func TestBuildPalette(t *testing.T) {
	buf, err := NewPixelBuffer(3, 1, []uint8{
		10, 20, 30, 255,
		11, 21, 31, 255,
		200, 0, 0, 255,
	})
	require.NoError(t, err)

	res := &quantize.Result{
		Centroids: []quantize.Vector{{10, 20, 30}, {200, 0, 0}, {0, 0, 250}},
		Labels:    []int{0, 0, 1},
	}
	p := BuildPalette(buf, res, ModeRGB)

	require.Len(t, p, 3)
	assert.Equal(t, RGB{11, 21, 31}, p[0])
	assert.Equal(t, RGB{200, 0, 0}, p[1])
	assert.Equal(t, RGB{0, 0, 250}, p[2], "empty cluster keeps its centroid")
}

func TestBuildPaletteExactPath(t *testing.T) {
	buf, err := NewPixelBuffer(3, 1, []uint8{
		0, 0, 0, 255,
		0, 0, 0, 255,
		255, 255, 255, 255,
	})
	require.NoError(t, err)

	res, err := quantize.Quantize(ModeHSL.Map(buf), quantize.Options{K: 2, Seed: 1})
	require.NoError(t, err)
	require.True(t, res.Exact)

	assert.Equal(t, Palette{{0, 0, 0}, {255, 255, 255}}, BuildPalette(buf, res, ModeHSL))
	assert.Equal(t, []int{0, 0, 1}, res.Labels)
}

func dist(a, b quantize.Vector) float64 {
	var s float64
	for i := range a {
		s += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(s)
}
