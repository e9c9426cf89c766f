package textfit

import (
	"fmt"
	"html"
	"math"
	"sync"

	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Measurer sizes text at a given font scale.
type Measurer interface {
	// Width is the advance of s rendered on one line.
	Width(s string, scale float64) float64
	// LineHeight is the distance between two baselines.
	LineHeight(scale float64) float64
}

// Monospace estimates every character at Advance×scale and lines at
// Leading×scale. The zero value uses 0.6 and 1.2.
type Monospace struct {
	Advance float64
	Leading float64
}

// Width implements Measurer. Character references such as "&amp;" count as
// one character and empty text as one.
func (m Monospace) Width(s string, scale float64) float64 {
	adv := m.Advance
	if adv == 0 {
		adv = 0.6
	}
	n := max(uniseg.GraphemeClusterCount(html.UnescapeString(s)), 1)
	return math.Ceil(float64(n) * scale * adv)
}

// LineHeight implements Measurer.
func (m Monospace) LineHeight(scale float64) float64 {
	lead := m.Leading
	if lead == 0 {
		lead = 1.2
	}
	return math.Round(scale * lead)
}

// FaceMeasurer measures real glyph advances of an OpenType font. Faces are
// created lazily per scale and cached.
type FaceMeasurer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFaceMeasurer parses a TrueType or OpenType font.
func NewFaceMeasurer(data []byte) (*FaceMeasurer, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FaceMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

// NewGoRegularMeasurer measures with the embedded Go Regular font.
func NewGoRegularMeasurer() (*FaceMeasurer, error) {
	return NewFaceMeasurer(goregular.TTF)
}

func (m *FaceMeasurer) face(scale float64) font.Face {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.faces[scale]; ok {
		return f
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil
	}
	m.faces[scale] = f
	return f
}

// Width implements Measurer.
func (m *FaceMeasurer) Width(s string, scale float64) float64 {
	f := m.face(scale)
	if f == nil {
		return Monospace{}.Width(s, scale)
	}
	adv := font.MeasureString(f, html.UnescapeString(s))
	return math.Ceil(float64(adv) / 64)
}

// LineHeight implements Measurer.
func (m *FaceMeasurer) LineHeight(scale float64) float64 {
	f := m.face(scale)
	if f == nil {
		return Monospace{}.LineHeight(scale)
	}
	return math.Ceil(float64(f.Metrics().Height) / 64)
}

// Close releases the cached faces.
func (m *FaceMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for k, f := range m.faces {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.faces, k)
	}
	return first
}
