// Package textfit fits a short statement into a rectangle by choosing an
// orientation, a font scale and line breaks.
//
// Candidate strategies are tried in priority order, each over every scale
// from the largest down: one horizontal line, then wrapped horizontal lines.
// Rectangles taller than wide also try the same two shapes rotated by 90°.
// The rotated result wins only with a strictly larger scale. When nothing
// fits, the text is laid out at the minimum scale and truncated.
package textfit

import (
	"math"
)

// Defaults used when Options fields are zero.
const (
	DefaultMinScale     = 11
	DefaultMaxScale     = 14
	DefaultPaddingRatio = 0.08
)

// Orientation of the laid out text.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	// Vertical text is rotated by 90°: lines run along the rectangle's
	// height and stack along its width.
	Vertical Orientation = "vertical"
)

// Text is a statement split into a breakable body and an atomic suffix.
// The suffix (for example "= ? min") is never split and, when the body
// wraps, always occupies the last line.
type Text struct {
	Body   string
	Suffix string
}

// Plain wraps a statement without suffix.
func Plain(s string) Text { return Text{Body: s} }

// String joins body and suffix with a single space.
func (t Text) String() string {
	switch {
	case t.Suffix == "":
		return t.Body
	case t.Body == "":
		return t.Suffix
	}
	return t.Body + " " + t.Suffix
}

// Options bound the search.
type Options struct {
	MinScale float64
	MaxScale float64
	// PaddingRatio reserves this fraction of the smaller rectangle side on
	// every edge.
	PaddingRatio float64
	// Measurer sizes text. Nil means Monospace{}.
	Measurer Measurer
}

func (o Options) withDefaults() Options {
	if o.MinScale <= 0 {
		o.MinScale = DefaultMinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = max(DefaultMaxScale, o.MinScale)
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = o.MinScale
	}
	if o.PaddingRatio <= 0 {
		o.PaddingRatio = DefaultPaddingRatio
	}
	if o.Measurer == nil {
		o.Measurer = Monospace{}
	}
	return o
}

// Result is a placed statement.
type Result struct {
	Orientation Orientation `json:"orientation"`
	Scale       float64     `json:"scale"`
	Lines       []string    `json:"lines"`
	Padding     float64     `json:"padding"`
	LineHeight  float64     `json:"line_height"`
	// Truncated reports the minimum-scale fallback dropped lines.
	Truncated bool `json:"truncated,omitempty"`
	// Fallback reports that no strategy fit and the minimum scale was
	// forced.
	Fallback bool `json:"fallback,omitempty"`
}

// shape places text given the room along the lines and across them.
type shape func(t Text, scale, along, across float64, m Measurer) ([]string, bool)

type strategy struct {
	orientation Orientation
	shape       shape
}

var (
	horizontalStrategies = []strategy{{Horizontal, singleLine}, {Horizontal, wrapped}}
	verticalStrategies   = []strategy{{Vertical, singleLine}, {Vertical, wrapped}}
)

// Layout fits t into a w×h rectangle.
func Layout(t Text, w, h float64, opts Options) Result {
	opts = opts.withDefaults()
	m := opts.Measurer

	pad := math.Floor(opts.PaddingRatio * math.Min(w, h))
	availW := math.Max(1, w-2*pad)
	availH := math.Max(1, h-2*pad)

	best, ok := search(horizontalStrategies, t, availW, availH, opts)
	if h > w {
		if v, vok := search(verticalStrategies, t, availW, availH, opts); vok && (!ok || v.Scale > best.Scale) {
			best, ok = v, true
		}
	}
	if !ok {
		best = fallback(t, availW, availH, opts)
	}
	best.Padding = pad
	best.LineHeight = m.LineHeight(best.Scale)
	return best
}

// search returns the first strategy and scale that fit.
func search(strategies []strategy, t Text, availW, availH float64, opts Options) (Result, bool) {
	for _, s := range strategies {
		along, across := availW, availH
		if s.orientation == Vertical {
			along, across = availH, availW
		}
		for _, scale := range scales(opts.MinScale, opts.MaxScale) {
			if lines, ok := s.shape(t, scale, along, across, opts.Measurer); ok {
				return Result{Orientation: s.orientation, Scale: scale, Lines: lines}, true
			}
		}
	}
	return Result{}, false
}

// scales lists integer steps from hi down to lo, always ending at lo.
func scales(lo, hi float64) []float64 {
	var out []float64
	for s := hi; s > lo; s-- {
		out = append(out, s)
	}
	return append(out, lo)
}

func singleLine(t Text, scale, along, across float64, m Measurer) ([]string, bool) {
	line := t.String()
	if m.Width(line, scale) > along || m.LineHeight(scale) > across {
		return nil, false
	}
	return []string{line}, true
}

func wrapped(t Text, scale, along, across float64, m Measurer) ([]string, bool) {
	lines, ok := wrap(t.Body, along, scale, m)
	if !ok || len(lines) == 0 {
		return nil, false
	}
	if t.Suffix != "" {
		if m.Width(t.Suffix, scale) > along {
			return nil, false
		}
		lines = append(lines, t.Suffix)
	}
	if float64(len(lines))*m.LineHeight(scale) > across {
		return nil, false
	}
	return lines, true
}

// fallback wraps at the minimum scale and keeps only the lines that fit
// vertically. The suffix keeps the last line whenever two or more lines fit.
func fallback(t Text, availW, availH float64, opts Options) Result {
	m := opts.Measurer
	scale := opts.MinScale
	maxLines := max(1, int(math.Floor(availH/m.LineHeight(scale))))

	body, ok := wrap(t.Body, availW, scale, m)
	if !ok {
		body = hardSplit(t.Body, availW, scale, m)
	}

	bodyRoom := maxLines
	if t.Suffix != "" && maxLines >= 2 {
		bodyRoom = maxLines - 1
	}
	truncated := false
	if len(body) > bodyRoom {
		body = body[:bodyRoom]
		truncated = true
	}
	lines := body
	if t.Suffix != "" {
		if len(lines) < maxLines {
			lines = append(lines, t.Suffix)
		} else {
			truncated = true
		}
	}
	return Result{
		Orientation: Horizontal,
		Scale:       scale,
		Lines:       lines,
		Truncated:   truncated,
		Fallback:    true,
	}
}

// hardSplit breaks s between atoms, one atom per line at worst, ignoring
// word boundaries. It never fails.
func hardSplit(s string, limit, scale float64, m Measurer) []string {
	var lines []string
	cur := ""
	for _, a := range atoms(s) {
		if cur != "" && m.Width(cur+a, scale) > limit {
			lines = append(lines, cur)
			cur = ""
		}
		cur += a
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
