package feature

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/coloriage/pkg/quantize"
)

// Mode selects the feature space used for clustering.
type Mode string

const (
	// ModeRGB clusters raw channel values (3 components, 0..255).
	ModeRGB Mode = "rgb"
	// ModeHSL clusters a weighted hue/saturation/lightness embedding
	// (4 components) in which hue lies on a circle and lightness counts
	// less than hue and saturation.
	ModeHSL Mode = "hsl"
)

// Weights of the HSL embedding. Hue and saturation dominate so that colors
// of similar brightness but different hue stay apart.
const (
	hueWeight   = 1.0
	satWeight   = 0.8
	lightWeight = 0.45
	hslScale    = 100.0
)

// ParseMode parses a mode name. The empty string selects ModeRGB.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRGB:
		return ModeRGB, nil
	case ModeHSL:
		return ModeHSL, nil
	}
	return "", fmt.Errorf("unknown feature mode %q (want rgb or hsl)", s)
}

// Dim returns the vector length of the mode.
func (m Mode) Dim() int {
	if m == ModeHSL {
		return 4
	}
	return 3
}

// MinSeparation is the centroid repulsion threshold in this feature space.
func (m Mode) MinSeparation() float64 {
	if m == ModeHSL {
		return 12
	}
	return 24
}

// Vector embeds one color.
func (m Mode) Vector(c RGB) quantize.Vector {
	if m != ModeHSL {
		return quantize.Vector{float64(c[0]), float64(c[1]), float64(c[2])}
	}
	h, s, l := c.colorful().Hsl()
	rad := h * math.Pi / 180
	return quantize.Vector{
		hslScale * hueWeight * s * math.Cos(rad),
		hslScale * hueWeight * s * math.Sin(rad),
		hslScale * satWeight * s,
		hslScale * lightWeight * l,
	}
}

// Color maps a vector of this mode back to the nearest displayable color.
func (m Mode) Color(v quantize.Vector) RGB {
	if m != ModeHSL {
		return RGB{channel(v[0]), channel(v[1]), channel(v[2])}
	}
	s := v[2] / (hslScale * satWeight)
	l := v[3] / (hslScale * lightWeight)
	h := math.Atan2(v[1], v[0]) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return fromColorful(colorful.Hsl(h, clamp01(s), clamp01(l)))
}

// Map embeds every pixel of buf. Identical colors share one vector
// computation.
func (m Mode) Map(buf *PixelBuffer) []quantize.Vector {
	out := make([]quantize.Vector, buf.Len())
	seen := make(map[RGB]quantize.Vector)
	for i := range out {
		c := buf.RGBAt(i)
		v, ok := seen[c]
		if !ok {
			v = m.Vector(c)
			seen[c] = v
		}
		out[i] = v
	}
	return out
}

func channel(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, f))))
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
