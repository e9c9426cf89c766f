// Package pkg provides the core libraries for Coloriage, a generator of
// color-by-number math puzzles.
//
// # Overview
//
// Coloriage reduces an image to a handful of colors, covers the resulting
// grid with monochrome rectangles and writes a small calculation into every
// rectangle. Solving the calculation gives the number of the color to paint
// the rectangle with.
//
// # Architecture
//
// The typical data flow:
//
//	Image (PNG, JPEG, GIF, WebP, BMP)
//	         ↓
//	  [io] decode and validate
//	         ↓
//	  [prep] flatten, downsample, adjust contrast and saturation
//	         ↓
//	  [feature] map pixels into the clustering color space
//	         ↓
//	  [quantize] seeded k-means into K labels
//	         ↓
//	  [tiling] merge equal-label cells into rectangles
//	         ↓
//	  [expr] one expression per rectangle whose answer is the color's target
//	         ↓
//	  [textfit] fit the expression text inside its rectangle
//	         ↓
//	JSON result, CLI summary or HTTP response
//
// [pipeline] wires the stages together, caches quantization through [cache]
// and reports stage timings through [observability].
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/coloriage/pkg/io"
//	    "github.com/matzehuels/coloriage/pkg/pipeline"
//	)
//
//	img, _, _ := io.ImportImage("cat.png")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(ctx, img, pipeline.Options{
//	    Columns:  40,
//	    Colors:   5,
//	    Category: "arithmetic",
//	})
//	io.ExportJSON(res, "cat.json")
//
// # Errors
//
// Validation failures carry a stable code from [errors] (INVALID_INPUT,
// INVALID_TARGET, UNSUPPORTED_FORMAT and so on) that the HTTP API returns
// verbatim.
//
// [io]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/io
// [prep]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/prep
// [feature]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/feature
// [quantize]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/quantize
// [tiling]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/tiling
// [expr]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/expr
// [textfit]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/textfit
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/coloriage/pkg/errors
package pkg
