// Package pipeline turns an image into an annotated region grid.
//
// This package implements the complete prepare → quantize → tile → annotate
// chain shared by the CLI and the HTTP API, so both entry points apply the
// same defaults and the same caching.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Prepare: flatten, downsample to the grid and pre-adjust colors
//  2. Quantize: cluster the grid cells into a small palette
//  3. Tile: cover the label grid with monochrome rectangles
//  4. Annotate: attach a statement to every rectangle and fit it
//
// Prepare and Quantize depend only on the image and a handful of options, so
// their output is cached. Changing the cell size, the merge toggle or any
// annotation setting reruns only Tile and Annotate.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, img, pipeline.Options{
//	    Colors:   6,
//	    Columns:  40,
//	    Category: "time",
//	})
//
// Interactive callers that submit a new configuration on every change use a
// [Scheduler], which debounces submissions and drops superseded runs.
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coloriage/pkg/cache"
	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/expr"
	"github.com/matzehuels/coloriage/pkg/feature"
	"github.com/matzehuels/coloriage/pkg/quantize"
	"github.com/matzehuels/coloriage/pkg/textfit"
	"github.com/matzehuels/coloriage/pkg/tiling"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultColumns is the grid width in cells.
	DefaultColumns = 40

	// DefaultColors is the palette size.
	DefaultColors = 6

	// DefaultSeed seeds color clustering.
	DefaultSeed = uint64(1234)

	// DefaultExprSeed seeds the statement shuffle. It is independent of
	// DefaultSeed so statements can be reshuffled without re-clustering.
	DefaultExprSeed = uint64(4321)

	// DefaultCellSize is the on-screen size of one grid cell in pixels.
	DefaultCellSize = 36

	// MinCellSize and MaxCellSize bound CellSize.
	MinCellSize = 16
	MaxCellSize = 200

	// MaxColors bounds the palette size.
	MaxColors = 32

	// MaxColumns bounds the grid width.
	MaxColumns = 400

	// MaxFontScale bounds the largest font scale tried by the layout search.
	MaxFontScale = MaxCellSize

	// DefaultLocale formats numbers with a decimal comma.
	DefaultLocale = "fr"

	// QuantizeTTL is how long a cached quantization stays valid.
	QuantizeTTL = 7 * 24 * time.Hour
)

// Annotation modes.
const (
	AnnotateNone       = "none"
	AnnotateValue      = "value"
	AnnotateExpression = "expression"
)

// Measurer names accepted by Options.Font.
const (
	FontEstimate  = "estimate"
	FontGoRegular = "goregular"
)

// ValidAnnotationModes is the set of supported annotation modes.
var ValidAnnotationModes = map[string]bool{
	AnnotateNone:       true,
	AnnotateValue:      true,
	AnnotateExpression: true,
}

// ValidFonts is the set of supported text measurers.
var ValidFonts = map[string]bool{
	FontEstimate:  true,
	FontGoRegular: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// It supports JSON for API requests and TOML for CLI config files.
type Options struct {
	// Quantization options
	Columns     int    `json:"columns,omitempty" toml:"columns"`
	Colors      int    `json:"colors,omitempty" toml:"colors"`
	Seed        uint64 `json:"seed,omitempty" toml:"seed"`
	MaxIter     int    `json:"max_iter,omitempty" toml:"max_iter"`
	Contrast    int    `json:"contrast,omitempty" toml:"contrast"`
	Saturation  int    `json:"saturation,omitempty" toml:"saturation"`
	FeatureMode string `json:"feature_mode,omitempty" toml:"feature_mode"`
	Refresh     bool   `json:"refresh,omitempty" toml:"-"`

	// Tiling options
	NoMerge  bool   `json:"no_merge,omitempty" toml:"no_merge"`
	Strategy string `json:"strategy,omitempty" toml:"strategy"`

	// Annotation options
	Annotate    string         `json:"annotate,omitempty" toml:"annotate"`
	Category    string         `json:"category,omitempty" toml:"category"`
	Difficulty  string         `json:"difficulty,omitempty" toml:"difficulty"`
	Arithmetic  string         `json:"arithmetic,omitempty" toml:"arithmetic"`
	ExprSeed    uint64         `json:"expr_seed,omitempty" toml:"expr_seed"`
	Targets     []float64      `json:"targets,omitempty" toml:"targets"`
	UnitWeights []float64      `json:"unit_weights,omitempty" toml:"unit_weights"`
	TimeWeights []float64      `json:"time_weights,omitempty" toml:"time_weights"`
	Overrides   map[int]string `json:"overrides,omitempty" toml:"-"`
	Locale      string         `json:"locale,omitempty" toml:"locale"`

	// Layout options
	CellSize     int     `json:"cell_size,omitempty" toml:"cell_size"`
	MinScale     float64 `json:"min_scale,omitempty" toml:"min_scale"`
	MaxScale     float64 `json:"max_scale,omitempty" toml:"max_scale"`
	PaddingRatio float64 `json:"padding_ratio,omitempty" toml:"padding_ratio"`
	Font         string  `json:"font,omitempty" toml:"font"`

	// Runtime options (not serialized)
	Logger   *log.Logger      `json:"-" toml:"-"`
	Measurer textfit.Measurer `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ImageHash is the content hash of the source image.
	ImageHash string `json:"image_hash"`

	// GridWidth and GridHeight are the label grid dimensions in cells.
	GridWidth  int `json:"grid_width"`
	GridHeight int `json:"grid_height"`

	// CellSize is the pixel size of one cell used for text fitting.
	CellSize int `json:"cell_size"`

	// Palette holds one color per cluster id.
	Palette feature.Palette `json:"-"`

	// PaletteHex is Palette as "#rrggbb" strings.
	PaletteHex []string `json:"palette"`

	// Labels has one cluster id per cell, row-major.
	Labels []int `json:"labels"`

	// Targets holds the numeric value assigned to every color.
	Targets []float64 `json:"targets"`

	// Regions are the rectangles with their annotations.
	Regions []Region `json:"regions"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo `json:"cache_info"`
}

// Region is a rectangle together with its statement.
type Region struct {
	tiling.Rect
	// Text is the full one-line statement, empty when unannotated.
	Text string `json:"text,omitempty"`
	// Label is the fitted layout of Text, nil when unannotated.
	Label *textfit.Result `json:"label,omitempty"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Colors       int           `json:"colors"`
	Regions      int           `json:"regions"`
	Iterations   int           `json:"iterations"`
	Exact        bool          `json:"exact"`
	Truncated    int           `json:"truncated"`
	QuantizeTime time.Duration `json:"quantize_time"`
	TileTime     time.Duration `json:"tile_time"`
	AnnotateTime time.Duration `json:"annotate_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	QuantizeHit bool `json:"quantize_hit"` // Whether palette and labels came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.SetQuantizeDefaults(); err != nil {
		return err
	}
	if err := o.SetTilingDefaults(); err != nil {
		return err
	}
	if err := o.SetAnnotateDefaults(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SetQuantizeDefaults validates and fills the options of the prepare and
// quantize stages.
func (o *Options) SetQuantizeDefaults() error {
	if o.Columns == 0 {
		o.Columns = DefaultColumns
	}
	if o.Colors == 0 {
		o.Colors = DefaultColors
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxIter == 0 {
		o.MaxIter = quantize.DefaultMaxIter
	}
	if o.FeatureMode == "" {
		o.FeatureMode = string(feature.ModeHSL)
	}
	if err := errors.ValidateRange("columns", o.Columns, 1, MaxColumns); err != nil {
		return err
	}
	if err := errors.ValidateRange("colors", o.Colors, 1, MaxColors); err != nil {
		return err
	}
	if err := errors.ValidateRange("max_iter", o.MaxIter, 1, 1000); err != nil {
		return err
	}
	if err := errors.ValidateRange("contrast", o.Contrast, -100, 100); err != nil {
		return err
	}
	if err := errors.ValidateRange("saturation", o.Saturation, -100, 100); err != nil {
		return err
	}
	if _, err := feature.ParseMode(o.FeatureMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid feature_mode")
	}
	return nil
}

// SetTilingDefaults validates and fills the tiling options.
func (o *Options) SetTilingDefaults() error {
	if o.Strategy == "" {
		o.Strategy = string(tiling.StrategyFixedWidth)
	}
	if _, err := tiling.ParseStrategy(o.Strategy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid strategy")
	}
	return nil
}

// SetAnnotateDefaults validates and fills the annotation and layout options.
// Targets are checked against the palette size later, once it is known.
func (o *Options) SetAnnotateDefaults() error {
	if o.Annotate == "" {
		o.Annotate = AnnotateExpression
	}
	if !ValidAnnotationModes[o.Annotate] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid annotate: %q (must be one of: none, value, expression)", o.Annotate)
	}

	cat, err := expr.ParseCategory(o.Category)
	if err != nil {
		return err
	}
	o.Category = string(cat)

	diff, err := expr.ParseDifficulty(o.Difficulty)
	if err != nil {
		return err
	}
	o.Difficulty = string(diff)

	mode, err := expr.ParseArithmeticMode(o.Arithmetic)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid arithmetic")
	}
	o.Arithmetic = string(mode)

	if o.ExprSeed == 0 {
		o.ExprSeed = DefaultExprSeed
	}

	if o.Locale == "" {
		o.Locale = DefaultLocale
	}
	if _, err := expr.ParseFormatter(o.Locale); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid locale")
	}

	if len(o.UnitWeights) == 0 {
		o.UnitWeights = expr.DefaultUnitWeights
	}
	if len(o.TimeWeights) == 0 {
		o.TimeWeights = expr.DefaultTimeWeights
	}
	for _, w := range append(append([]float64{}, o.UnitWeights...), o.TimeWeights...) {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "bucket weights must be finite and not negative, got %v", w)
		}
	}

	if o.CellSize == 0 {
		o.CellSize = DefaultCellSize
	}
	o.CellSize = max(MinCellSize, min(MaxCellSize, o.CellSize))
	if o.MinScale == 0 {
		o.MinScale = textfit.DefaultMinScale
	}
	if o.MaxScale == 0 {
		o.MaxScale = max(textfit.DefaultMaxScale, o.MinScale)
	}
	if !finite(o.MinScale) || !finite(o.MaxScale) ||
		o.MinScale < 1 || o.MaxScale < o.MinScale || o.MaxScale > MaxFontScale {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid font scale range [%g, %g] (must lie within [1, %d])", o.MinScale, o.MaxScale, MaxFontScale)
	}
	if o.PaddingRatio == 0 {
		o.PaddingRatio = textfit.DefaultPaddingRatio
	}
	if !finite(o.PaddingRatio) || o.PaddingRatio < 0 || o.PaddingRatio >= 0.5 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"padding_ratio must be in [0, 0.5), got %g", o.PaddingRatio)
	}
	if o.Font == "" {
		o.Font = FontEstimate
	}
	if !ValidFonts[o.Font] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid font: %q (must be one of: estimate, goregular)", o.Font)
	}
	return nil
}

// QuantizeKeyOpts returns cache key options for the quantize stage.
func (o *Options) QuantizeKeyOpts() cache.QuantizeKeyOpts {
	return cache.QuantizeKeyOpts{
		Colors:      o.Colors,
		Columns:     o.Columns,
		Seed:        o.Seed,
		MaxIter:     o.MaxIter,
		Contrast:    o.Contrast,
		Saturation:  o.Saturation,
		FeatureMode: o.FeatureMode,
	}
}

// TargetsFor returns one target per color: the configured value when
// present, otherwise id+2.
func (o *Options) TargetsFor(k int) []float64 {
	out := make([]float64, k)
	for i := range out {
		if i < len(o.Targets) {
			out[i] = o.Targets[i]
		} else {
			out[i] = float64(i + 2)
		}
	}
	return out
}

// ExprOptions returns the expression bank options.
func (o *Options) ExprOptions(f *expr.Formatter) expr.Options {
	return expr.Options{
		Category:    expr.Category(o.Category),
		Difficulty:  expr.Difficulty(o.Difficulty),
		Mode:        expr.ArithmeticMode(o.Arithmetic),
		Seed:        o.ExprSeed,
		UnitWeights: o.UnitWeights,
		TimeWeights: o.TimeWeights,
		Formatter:   f,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
