package pipeline

import (
	"image"
	"math"
	"image/color"
	"testing"

	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/expr"
)

// twoTone returns a w×h image whose left half is red and right half blue.
func twoTone(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	red := color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	blue := color.NRGBA{R: 30, G: 30, B: 220, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetNRGBA(x, y, red)
			} else {
				img.SetNRGBA(x, y, blue)
			}
		}
	}
	return img
}

func TestValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"columns", o.Columns, DefaultColumns},
		{"colors", o.Colors, DefaultColors},
		{"seed", o.Seed, DefaultSeed},
		{"max_iter", o.MaxIter, 24},
		{"feature_mode", o.FeatureMode, "hsl"},
		{"strategy", o.Strategy, "fixed"},
		{"annotate", o.Annotate, AnnotateExpression},
		{"category", o.Category, string(expr.CategoryArithmetic)},
		{"difficulty", o.Difficulty, string(expr.DifficultyEasy)},
		{"arithmetic", o.Arithmetic, string(expr.ModeAddSub)},
		{"expr_seed", o.ExprSeed, DefaultExprSeed},
		{"locale", o.Locale, "fr"},
		{"cell_size", o.CellSize, DefaultCellSize},
		{"min_scale", o.MinScale, 11.0},
		{"max_scale", o.MaxScale, 14.0},
		{"padding_ratio", o.PaddingRatio, 0.08},
		{"font", o.Font, FontEstimate},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	o := Options{Colors: 3}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	o.Colors = 999 // ignored once validated
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestCellSizeIsClamped(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{4, MinCellSize},
		{36, 36},
		{1000, MaxCellSize},
	}
	for _, tt := range tests {
		o := Options{CellSize: tt.in}
		if err := o.SetAnnotateDefaults(); err != nil {
			t.Fatal(err)
		}
		if o.CellSize != tt.want {
			t.Errorf("CellSize(%d) = %d, want %d", tt.in, o.CellSize, tt.want)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"too many colors", Options{Colors: MaxColors + 1}, errors.ErrCodeInvalidConfig},
		{"negative columns", Options{Columns: -1}, errors.ErrCodeInvalidConfig},
		{"contrast", Options{Contrast: 150}, errors.ErrCodeInvalidConfig},
		{"feature mode", Options{FeatureMode: "lab"}, errors.ErrCodeInvalidConfig},
		{"strategy", Options{Strategy: "spiral"}, errors.ErrCodeInvalidConfig},
		{"annotate", Options{Annotate: "emoji"}, errors.ErrCodeInvalidConfig},
		{"category", Options{Category: "geometry"}, errors.ErrCodeInvalidCategory},
		{"difficulty", Options{Difficulty: "extreme"}, errors.ErrCodeInvalidDifficulty},
		{"arithmetic", Options{Arithmetic: "pow"}, errors.ErrCodeInvalidConfig},
		{"scale range", Options{MinScale: 20, MaxScale: 12}, errors.ErrCodeInvalidConfig},
		{"padding", Options{PaddingRatio: 0.6}, errors.ErrCodeInvalidConfig},
		{"font", Options{Font: "comic"}, errors.ErrCodeInvalidConfig},
		{"scale too large", Options{MaxScale: 1e12}, errors.ErrCodeInvalidConfig},
		{"NaN min scale", Options{MinScale: math.NaN()}, errors.ErrCodeInvalidConfig},
		{"NaN max scale", Options{MaxScale: math.NaN()}, errors.ErrCodeInvalidConfig},
		{"Inf max scale", Options{MaxScale: math.Inf(1)}, errors.ErrCodeInvalidConfig},
		{"NaN padding", Options{PaddingRatio: math.NaN()}, errors.ErrCodeInvalidConfig},
		{"weights", Options{UnitWeights: []float64{1, -1, 1}}, errors.ErrCodeInvalidConfig},
		{"NaN weight", Options{TimeWeights: []float64{1, math.NaN()}}, errors.ErrCodeInvalidConfig},
		{"Inf weight", Options{UnitWeights: []float64{math.Inf(1)}}, errors.ErrCodeInvalidConfig},
		{"-Inf weight", Options{UnitWeights: []float64{1, math.Inf(-1)}}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestTargetsFor(t *testing.T) {
	o := Options{Targets: []float64{10, 2.5}}
	got := o.TargetsFor(4)
	want := []float64{10, 2.5, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("TargetsFor(4) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TargetsFor(4)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestQuantizeKeyOptsIgnoresLayout(t *testing.T) {
	a := Options{CellSize: 20, NoMerge: true, Category: "time"}
	b := Options{CellSize: 80}
	for _, o := range []*Options{&a, &b} {
		if err := o.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
	}
	if a.QuantizeKeyOpts() != b.QuantizeKeyOpts() {
		t.Error("layout and annotation settings must not change the quantize key")
	}
}
