// Package io connects the grid pipeline to files and byte streams.
//
// # Images
//
// [DecodeImage] reads PNG, JPEG, GIF, WebP and BMP data and rejects images
// whose header announces more pixels than the pipeline accepts, before the
// pixel data is decoded:
//
//	img, format, err := io.DecodeImage(r, io.DefaultMaxBytes)
//
// [ImportImage] does the same for a file path.
//
// # Results
//
// [WriteJSON] and [ExportJSON] serialize a [pipeline.Result]: grid size,
// palette as "#rrggbb" strings, the row-major label grid, per-color targets
// and every region with its statement and fitted layout. [ReadJSON] and
// [ImportJSON] read the same document back, restoring the palette.
//
//	{
//	  "grid_width": 8,
//	  "grid_height": 4,
//	  "palette": ["#dc1e1e", "#1e1edc"],
//	  "labels": [0, 0, 0, 0, 1, 1, 1, 1, ...],
//	  "targets": [2, 3],
//	  "regions": [
//	    {"id": 0, "x": 0, "y": 0, "w": 4, "h": 4, "color_id": 0,
//	     "text": "1 + 1",
//	     "label": {"orientation": "horizontal", "scale": 14, "lines": ["1 + 1"], ...}}
//	  ]
//	}
//
// [pipeline.Result]: github.com/matzehuels/coloriage/pkg/pipeline.Result
package io
