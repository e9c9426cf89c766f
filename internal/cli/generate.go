package cli

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/coloriage/pkg/io"
	"github.com/matzehuels/coloriage/pkg/pipeline"
)

// previewMaxColumns is the widest grid drawn in the terminal preview.
const previewMaxColumns = 80

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output    string   // JSON output path, "-" for stdout
	config    string   // TOML config path
	preview   bool     // draw the color grid in the terminal
	overrides []string // id=text pairs
	cache     cacheFlags
	grid      pipeline.Options
}

// generateCommand creates the generate command, which runs the full pipeline
// on one image.
func (c *CLI) generateCommand() *cobra.Command {
	var o generateOpts

	cmd := &cobra.Command{
		Use:   "generate <image>",
		Short: "Turn an image into a color-by-number grid",
		Long: `Quantize an image into a few colors, tile it into monochrome rectangles and
write a calculation into each rectangle whose answer names its color.

Pass "-" to read the image from stdin. Settings from coloriage.toml (or
--config) apply first; flags given on the command line win.`,
		Example: `  coloriage generate cat.png --colors 5 --category arithmetic --arithmetic mult -o cat.json
  coloriage generate cat.png --annotate value --targets 1,2,3,4,5 --preview`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, args[0], o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "o", "", "write the result as JSON to this file (\"-\" for stdout)")
	f.StringVar(&o.config, "config", "", "config file (default ./"+configFileName+" when present)")
	f.BoolVar(&o.preview, "preview", false, "draw the quantized grid in the terminal")
	f.StringArrayVar(&o.overrides, "override", nil, "replace the text of one region, as id=text (repeatable)")

	f.IntVar(&o.grid.Columns, "columns", pipeline.DefaultColumns, "grid width in cells")
	f.IntVar(&o.grid.Colors, "colors", pipeline.DefaultColors, "number of palette colors")
	f.Uint64Var(&o.grid.Seed, "seed", pipeline.DefaultSeed, "random seed for color clustering")
	f.Uint64Var(&o.grid.ExprSeed, "expr-seed", pipeline.DefaultExprSeed, "random seed for the statement shuffle")
	f.IntVar(&o.grid.MaxIter, "max-iter", 0, "k-means iteration limit (0 for default)")
	f.IntVar(&o.grid.Contrast, "contrast", 0, "contrast adjustment in percent (-100..100)")
	f.IntVar(&o.grid.Saturation, "saturation", 0, "saturation adjustment in percent (-100..100)")
	f.StringVar(&o.grid.FeatureMode, "feature-mode", "", "color space for clustering: rgb or hsl")
	f.BoolVar(&o.grid.Refresh, "refresh", false, "ignore cached quantizations")

	f.BoolVar(&o.grid.NoMerge, "no-merge", false, "keep one region per cell")
	f.StringVar(&o.grid.Strategy, "strategy", "", "tiling strategy: fixed or shrink")

	f.StringVar(&o.grid.Annotate, "annotate", pipeline.AnnotateExpression, "region text: none, value or expression")
	f.StringVar(&o.grid.Category, "category", "", "expression category: arithmetic, unit or time")
	f.StringVar(&o.grid.Difficulty, "difficulty", "", "expression difficulty: easy, medium or hard")
	f.StringVar(&o.grid.Arithmetic, "arithmetic", "", "arithmetic mode: add, addsub, mult, multdiv or mix")
	f.Float64SliceVar(&o.grid.Targets, "targets", nil, "answer value per color (default 2,3,4,...)")
	f.StringVar(&o.grid.Locale, "locale", pipeline.DefaultLocale, "number format locale")

	f.IntVar(&o.grid.CellSize, "cell-size", pipeline.DefaultCellSize, "cell size in pixels for text layout")
	f.StringVar(&o.grid.Font, "font", "", "font metrics: estimate or goregular")

	o.cache.register(cmd)
	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, path string, o generateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(o.config)
	if err != nil {
		return err
	}
	opts := cfg.Grid
	mergeGridFlags(cmd.Flags(), &opts, o.grid)
	if opts.Overrides, err = parseOverrides(o.overrides); err != nil {
		return err
	}
	opts.Logger = logger

	img, format, err := readImage(path)
	if err != nil {
		return err
	}
	logger.Debug("decoded image", "path", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	runner, err := c.newRunner(ctx, o.cache.withConfig(cmd, cfg))
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Generating grid...")
	spinner.Start()
	res, err := runner.Execute(ctx, img, opts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Generated %d regions", res.Stats.Regions))

	if o.output == "-" {
		return io.WriteJSON(res, c.Out)
	}

	printSuccess(c.Out, "Generated %s", path)
	printStats(c.Out, res.GridWidth, res.GridHeight, res.Stats.Colors, res.Stats.Regions, res.CacheInfo.QuantizeHit)
	hexes := res.Palette.Hex()
	printPalette(c.Out, hexes, formatTargets(res.Targets))
	if res.Stats.Truncated > 0 {
		printWarning(c.Out, "%d labels did not fit their region", res.Stats.Truncated)
	}
	if o.preview {
		printPreview(c.Out, res.Labels, res.GridWidth, hexes, previewMaxColumns)
	}

	if o.output == "" {
		printNextStep(c.Out, "Save the grid", "coloriage generate "+path+" -o grid.json")
		return nil
	}
	if err := io.ExportJSON(res, o.output); err != nil {
		return err
	}
	printFile(c.Out, o.output)
	return nil
}

func readImage(path string) (image.Image, string, error) {
	if path == "-" {
		return io.DecodeImage(os.Stdin, io.DefaultMaxBytes)
	}
	return io.ImportImage(path)
}

// mergeGridFlags copies every flag the user set explicitly from src into dst,
// so command-line values win over the config file.
func mergeGridFlags(flags *pflag.FlagSet, dst *pipeline.Options, src pipeline.Options) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("columns", func() { dst.Columns = src.Columns })
	set("colors", func() { dst.Colors = src.Colors })
	set("seed", func() { dst.Seed = src.Seed })
	set("expr-seed", func() { dst.ExprSeed = src.ExprSeed })
	set("max-iter", func() { dst.MaxIter = src.MaxIter })
	set("contrast", func() { dst.Contrast = src.Contrast })
	set("saturation", func() { dst.Saturation = src.Saturation })
	set("feature-mode", func() { dst.FeatureMode = src.FeatureMode })
	set("refresh", func() { dst.Refresh = src.Refresh })
	set("no-merge", func() { dst.NoMerge = src.NoMerge })
	set("strategy", func() { dst.Strategy = src.Strategy })
	set("annotate", func() { dst.Annotate = src.Annotate })
	set("category", func() { dst.Category = src.Category })
	set("difficulty", func() { dst.Difficulty = src.Difficulty })
	set("arithmetic", func() { dst.Arithmetic = src.Arithmetic })
	set("targets", func() { dst.Targets = src.Targets })
	set("locale", func() { dst.Locale = src.Locale })
	set("cell-size", func() { dst.CellSize = src.CellSize })
	set("font", func() { dst.Font = src.Font })
}

// parseOverrides parses id=text pairs.
func parseOverrides(pairs []string) (map[int]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(pairs))
	for _, p := range pairs {
		id, text, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: want id=text", p)
		}
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("override %q: invalid region id", p)
		}
		out[n] = text
	}
	return out, nil
}

func formatTargets(targets []float64) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	return out
}
