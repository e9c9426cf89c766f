package pipeline

import (
	"context"
	stderrors "errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/coloriage/pkg/cache"
	"github.com/matzehuels/coloriage/pkg/errors"
	"github.com/matzehuels/coloriage/pkg/tiling"
)

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func TestExecuteTwoTone(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), twoTone(8, 4), Options{Columns: 8})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.GridWidth != 8 || res.GridHeight != 4 {
		t.Errorf("grid = %dx%d, want 8x4", res.GridWidth, res.GridHeight)
	}
	if !res.Stats.Exact {
		t.Error("two distinct colors should take the exact path")
	}
	wantPalette := []string{"#dc1e1e", "#1e1edc"}
	if len(res.PaletteHex) != 2 || res.PaletteHex[0] != wantPalette[0] || res.PaletteHex[1] != wantPalette[1] {
		t.Errorf("palette = %v, want %v", res.PaletteHex, wantPalette)
	}

	wantRects := []tiling.Rect{
		{ID: 0, X: 0, Y: 0, W: 4, H: 4, ColorID: 0},
		{ID: 1, X: 4, Y: 0, W: 4, H: 4, ColorID: 1},
	}
	if len(res.Regions) != len(wantRects) {
		t.Fatalf("regions = %d, want %d", len(res.Regions), len(wantRects))
	}
	for i, want := range wantRects {
		reg := res.Regions[i]
		if reg.Rect != want {
			t.Errorf("region %d = %+v, want %+v", i, reg.Rect, want)
		}
		if reg.Text == "" || reg.Label == nil {
			t.Errorf("region %d should be annotated", i)
		}
	}
	if res.Targets[0] != 2 || res.Targets[1] != 3 {
		t.Errorf("targets = %v, want [2 3]", res.Targets)
	}
	if res.Stats.Regions != 2 || res.Stats.Colors != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestExecuteNoMerge(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), twoTone(8, 4), Options{Columns: 8, NoMerge: true, Annotate: AnnotateNone})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Regions) != 32 {
		t.Errorf("regions = %d, want one per cell (32)", len(res.Regions))
	}
	for _, reg := range res.Regions {
		if reg.Text != "" || reg.Label != nil {
			t.Fatalf("annotate=none should leave region %d blank", reg.ID)
		}
	}
}

func TestExecuteValueModeAndOverrides(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), twoTone(8, 4), Options{
		Columns:   8,
		Annotate:  AnnotateValue,
		Targets:   []float64{2.5, 7},
		Overrides: map[int]string{1: "bonjour"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Regions[0].Text; got != "2,5" {
		t.Errorf("region 0 text = %q, want %q", got, "2,5")
	}
	if got := res.Regions[1].Text; got != "bonjour" {
		t.Errorf("region 1 text = %q, want override", got)
	}
}

func TestExecuteQuantizeCache(t *testing.T) {
	mem := cache.NewMemoryCache(16)
	r := quietRunner(mem)
	ctx := context.Background()
	img := twoTone(8, 4)

	first, err := r.Execute(ctx, img, Options{Columns: 8})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.QuantizeHit {
		t.Error("first run should miss the cache")
	}

	second, err := r.Execute(ctx, img, Options{Columns: 8, CellSize: 80, NoMerge: true})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.QuantizeHit {
		t.Error("layout changes should reuse the cached quantization")
	}
	if first.ImageHash != second.ImageHash {
		t.Error("image hash should be stable")
	}
	for i := range first.Labels {
		if first.Labels[i] != second.Labels[i] {
			t.Fatalf("cached labels differ at %d", i)
		}
	}

	third, err := r.Execute(ctx, img, Options{Columns: 8, Colors: 3})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.QuantizeHit {
		t.Error("a different palette size must miss the cache")
	}

	refreshed, err := r.Execute(ctx, img, Options{Columns: 8, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.QuantizeHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteEmptyImage(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), image.NewNRGBA(image.Rect(0, 0, 0, 0)), Options{})
	if err != nil {
		t.Fatalf("empty image should not fail: %v", err)
	}
	if len(res.Regions) != 0 || len(res.PaletteHex) != 0 {
		t.Errorf("empty image should give an empty result, got %+v", res)
	}
}

func TestExecuteInvalidTarget(t *testing.T) {
	r := quietRunner(nil)
	_, err := r.Execute(context.Background(), twoTone(8, 4), Options{Columns: 8, Targets: []float64{0, 3}})
	if !errors.Is(err, errors.ErrCodeInvalidTarget) {
		t.Errorf("err = %v, want INVALID_TARGET", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := quietRunner(nil)
	_, err := r.Execute(ctx, twoTone(8, 4), Options{Columns: 8})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExecuteDeterministic(t *testing.T) {
	img := gradient(30, 20)
	r := quietRunner(nil)
	a, err := r.Execute(context.Background(), img, Options{Columns: 15, Colors: 4})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Execute(context.Background(), img, Options{Columns: 15, Colors: 4})
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("labels differ at %d", i)
		}
	}
	for i := range a.Regions {
		if a.Regions[i].Text != b.Regions[i].Text {
			t.Fatalf("region %d text differs: %q vs %q", i, a.Regions[i].Text, b.Regions[i].Text)
		}
	}
	g, _ := tiling.NewGrid(a.Labels, a.GridWidth, a.GridHeight)
	rects := make([]tiling.Rect, len(a.Regions))
	for i, reg := range a.Regions {
		rects[i] = reg.Rect
	}
	if err := tiling.Validate(rects, g); err != nil {
		t.Errorf("tiling invalid: %v", err)
	}
}

func TestExecuteExprSeedIsIndependent(t *testing.T) {
	img := twoTone(8, 4)
	r := quietRunner(nil)
	run := func(seed, exprSeed uint64) *Result {
		t.Helper()
		res, err := r.Execute(context.Background(), img, Options{
			Columns:    8,
			Colors:     2,
			NoMerge:    true,
			Category:   "arithmetic",
			Arithmetic: "mix",
			Difficulty: "medium",
			Targets:    []float64{18, 24},
			Seed:       seed,
			ExprSeed:   exprSeed,
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		return res
	}
	texts := func(res *Result) []string {
		out := make([]string, len(res.Regions))
		for i, reg := range res.Regions {
			out[i] = reg.Text
		}
		return out
	}

	a, b := run(1, 1), run(1, 2)
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("expression seed changed label %d", i)
		}
	}
	ta, tb := texts(a), texts(b)
	same := true
	for i := range ta {
		if ta[i] != tb[i] {
			same = false
		}
	}
	if same {
		t.Error("a different expression seed should reshuffle the statements")
	}

	c := run(99, 1)
	for i, s := range texts(c) {
		if s != ta[i] {
			t.Errorf("clustering seed changed region %d text: %q vs %q", i, s, ta[i])
		}
	}
}

func TestExecuteDefaultsSeparateHues(t *testing.T) {
	// Red on the left, green on the right, each with a light top half and a
	// dark bottom half. Both reds and both greens share their lightness.
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			var c color.NRGBA
			switch {
			case x < 4 && y < 2:
				c = color.NRGBA{R: 240, G: 120, B: 120, A: 255}
			case x < 4:
				c = color.NRGBA{R: 120, G: 20, B: 20, A: 255}
			case y < 2:
				c = color.NRGBA{R: 120, G: 240, B: 120, A: 255}
			default:
				c = color.NRGBA{R: 20, G: 120, B: 20, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	opts := Options{Columns: 8, Colors: 2, NoMerge: true, Annotate: AnnotateNone}
	res, err := quietRunner(nil).Execute(context.Background(), img, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stats.Exact {
		t.Fatal("four colors into two clusters should not take the exact path")
	}
	at := func(x, y int) int { return res.Labels[y*res.GridWidth+x] }
	for y := 0; y < 4; y++ {
		if at(0, y) != at(3, y) || at(0, y) != at(0, 0) {
			t.Errorf("red cells in row %d split from the top-left cell", y)
		}
		if at(4, y) != at(7, y) || at(4, y) != at(4, 0) {
			t.Errorf("green cells in row %d split from the top-right cell", y)
		}
	}
	if at(0, 0) == at(7, 0) {
		t.Error("red and green of equal lightness should not share a cluster")
	}
}

func TestImageHashIgnoresOrigin(t *testing.T) {
	a := twoTone(8, 4).(*image.NRGBA)
	b := image.NewNRGBA(image.Rect(5, 5, 13, 9))
	copy(b.Pix, a.Pix)
	if ImageHash(a) != ImageHash(b) {
		t.Error("hash should depend on pixels, not on bounds origin")
	}
	if ImageHash(a) == ImageHash(twoTone(4, 8)) {
		t.Error("hash should include the dimensions")
	}
}

// gradient returns an image with many distinct colors.
func gradient(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(x * 255 / w)
			img.Pix[i+1] = uint8(y * 255 / h)
			img.Pix[i+2] = 128
			img.Pix[i+3] = 255
		}
	}
	return img
}
