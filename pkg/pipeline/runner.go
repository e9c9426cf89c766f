package pipeline

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coloriage/pkg/cache"
	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/feature"
	"github.com/matzehuels/coloriage/pkg/observability"
	"github.com/matzehuels/coloriage/pkg/prep"
	"github.com/matzehuels/coloriage/pkg/quantize"
	"github.com/matzehuels/coloriage/pkg/tiling"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so the caching logic lives in one place.
//
// The Runner holds no per-run state, so multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Quantized is the output of the prepare and quantize stages.
type Quantized struct {
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Palette    feature.Palette `json:"palette"`
	Labels     []int           `json:"labels"`
	Exact      bool            `json:"exact"`
	Iterations int             `json:"iterations"`
}

// Grid returns the label grid.
func (q *Quantized) Grid() tiling.Grid {
	return tiling.Grid{Labels: q.Labels, Width: q.Width, Height: q.Height}
}

// Execute runs the complete prepare → quantize → tile → annotate pipeline.
// The context is checked between stages; a cancelled run returns ctx.Err().
func (r *Runner) Execute(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	b := img.Bounds()
	if err := errors.ValidateDimensions(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	result := &Result{
		ImageHash: ImageHash(img),
		CellSize:  opts.CellSize,
	}

	// Stage 1+2: Prepare and quantize
	quantizeStart := time.Now()
	q, hit, err := r.QuantizeWithCacheInfo(ctx, img, result.ImageHash, opts)
	if err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}
	result.GridWidth, result.GridHeight = q.Width, q.Height
	result.Palette = q.Palette
	result.PaletteHex = q.Palette.Hex()
	result.Labels = q.Labels
	result.Targets = opts.TargetsFor(len(q.Palette))
	result.Stats.Colors = len(q.Palette)
	result.Stats.Iterations = q.Iterations
	result.Stats.Exact = q.Exact
	result.Stats.QuantizeTime = time.Since(quantizeStart)
	result.CacheInfo.QuantizeHit = hit

	r.Logger.Info("quantized",
		"grid", fmt.Sprintf("%dx%d", q.Width, q.Height),
		"colors", len(q.Palette),
		"iterations", q.Iterations,
		"exact", q.Exact,
		"cached", hit,
		"duration", result.Stats.QuantizeTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Tile
	tileStart := time.Now()
	rects, err := r.Tile(ctx, q, opts)
	if err != nil {
		return nil, fmt.Errorf("tile: %w", err)
	}
	result.Stats.Regions = len(rects)
	result.Stats.TileTime = time.Since(tileStart)

	r.Logger.Info("tiled",
		"regions", len(rects),
		"merge", !opts.NoMerge,
		"duration", result.Stats.TileTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: Annotate
	annotateStart := time.Now()
	regions, err := r.Annotate(ctx, rects, result.Targets, opts)
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}
	result.Regions = regions
	result.Stats.AnnotateTime = time.Since(annotateStart)
	for _, reg := range regions {
		if reg.Label != nil && reg.Label.Truncated {
			result.Stats.Truncated++
		}
	}

	r.Logger.Info("annotated",
		"mode", opts.Annotate,
		"category", opts.Category,
		"truncated", result.Stats.Truncated,
		"duration", result.Stats.AnnotateTime)

	return result, nil
}

// QuantizeWithCacheInfo prepares and quantizes img, consulting the cache
// first. imageHash must be ImageHash(img); callers that already computed it
// pass it in to avoid hashing twice. An empty hash is computed here.
func (r *Runner) QuantizeWithCacheInfo(ctx context.Context, img image.Image, imageHash string, opts Options) (*Quantized, bool, error) {
	if err := opts.SetQuantizeDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)
	if imageHash == "" {
		imageHash = ImageHash(img)
	}

	cacheKey := r.Keyer.QuantizeKey(imageHash, opts.QuantizeKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var q Quantized
			if err := json.Unmarshal(data, &q); err == nil && len(q.Labels) == q.Width*q.Height {
				observability.Cache().OnCacheHit(ctx, "quantize")
				return &q, true, nil
			}
			// Undecodable entries fall through to recompute
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "quantize")
	}

	q, err := Quantize(ctx, img, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(q); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, QuantizeTTL); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "quantize", len(data))
		}
	}
	return q, false, nil
}

// Quantize runs the prepare and quantize stages without caching.
func Quantize(ctx context.Context, img image.Image, opts Options) (q *Quantized, err error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnStageStart(ctx, observability.StageQuantize)
	defer func() {
		n := 0
		if q != nil {
			n = len(q.Palette)
		}
		hooks.OnStageComplete(ctx, observability.StageQuantize, n, time.Since(start), err)
	}()

	mode, err := feature.ParseMode(opts.FeatureMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid feature_mode")
	}

	buf := prep.Prepare(img, prep.Options{
		Columns:    opts.Columns,
		Contrast:   opts.Contrast,
		Saturation: opts.Saturation,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := quantize.Quantize(mode.Map(buf), quantize.Options{
		K:             opts.Colors,
		MaxIter:       opts.MaxIter,
		Seed:          opts.Seed,
		MinSeparation: mode.MinSeparation(),
	})
	if err != nil {
		return nil, err
	}

	return &Quantized{
		Width:      buf.Width,
		Height:     buf.Height,
		Palette:    feature.BuildPalette(buf, res, mode),
		Labels:     res.Labels,
		Exact:      res.Exact,
		Iterations: res.Iterations,
	}, nil
}

// Tile covers the label grid with rectangles. With NoMerge every cell is
// its own rectangle.
func (r *Runner) Tile(ctx context.Context, q *Quantized, opts Options) (rects []tiling.Rect, err error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnStageStart(ctx, observability.StageTile)
	defer func() {
		hooks.OnStageComplete(ctx, observability.StageTile, len(rects), time.Since(start), err)
	}()

	g, err := tiling.NewGrid(q.Labels, q.Width, q.Height)
	if err != nil {
		return nil, err
	}
	if opts.NoMerge {
		return tiling.Cells(g), nil
	}
	strategy, err := tiling.ParseStrategy(opts.Strategy)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid strategy")
	}
	return tiling.Tile(g, strategy), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// ImageHash returns a content hash of the decoded pixels, independent of
// the encoding the image arrived in.
func ImageHash(img image.Image) string {
	buf := feature.FromImage(img)
	data := make([]byte, 8, 8+len(buf.Pix))
	binary.BigEndian.PutUint32(data[0:4], uint32(buf.Width))
	binary.BigEndian.PutUint32(data[4:8], uint32(buf.Height))
	return cache.Hash(append(data, buf.Pix...))
}
