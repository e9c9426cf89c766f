// Package tiling partitions a label grid into disjoint, monochromatic,
// axis-aligned rectangles that cover every cell.
//
// The cover is greedy, not minimal: cells are visited row-major from the top
// left, and each unvisited cell starts a rectangle that grows right along its
// row and then down while the rows below still match. The result depends only
// on the labels.
package tiling

import (
	"fmt"
)

// Strategy selects how a rectangle grows downward.
type Strategy string

const (
	// StrategyFixedWidth keeps the width of the first row and stops at the
	// first row whose strip of that width is not entirely free and of the
	// same label.
	StrategyFixedWidth Strategy = "fixed"
	// StrategyShrinkWidth narrows the rectangle to the shortest run seen in
	// the rows below, trading width for height.
	StrategyShrinkWidth Strategy = "shrink"
)

// ParseStrategy parses a strategy name. The empty string selects
// StrategyFixedWidth.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyFixedWidth:
		return StrategyFixedWidth, nil
	case StrategyShrinkWidth:
		return StrategyShrinkWidth, nil
	}
	return "", fmt.Errorf("unknown tiling strategy %q (want fixed or shrink)", s)
}

// Grid is a row-major label grid.
type Grid struct {
	Labels []int
	Width  int
	Height int
}

// NewGrid checks that labels holds exactly w×h entries.
func NewGrid(labels []int, w, h int) (Grid, error) {
	if w < 0 || h < 0 || len(labels) != w*h {
		return Grid{}, fmt.Errorf("tiling: %d labels for a %dx%d grid", len(labels), w, h)
	}
	return Grid{Labels: labels, Width: w, Height: h}, nil
}

// At returns the label of cell (x, y).
func (g Grid) At(x, y int) int { return g.Labels[y*g.Width+x] }

// Rect is one tile. ID is its position in the emitted sequence.
type Rect struct {
	ID      int `json:"id"`
	X       int `json:"x"`
	Y       int `json:"y"`
	W       int `json:"w"`
	H       int `json:"h"`
	ColorID int `json:"color_id"`
}

// Area returns the number of covered cells.
func (r Rect) Area() int { return r.W * r.H }

// Contains reports whether cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Tile merges same-label cells into rectangles.
func Tile(g Grid, strategy Strategy) []Rect {
	visited := make([]bool, len(g.Labels))
	var rects []Rect

	// run measures the free, same-label run starting at (x, y).
	run := func(x, y, k, limit int) int {
		n := 0
		for x+n < g.Width && n < limit {
			i := y*g.Width + x + n
			if visited[i] || g.Labels[i] != k {
				break
			}
			n++
		}
		return n
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if visited[y*g.Width+x] {
				continue
			}
			k := g.At(x, y)
			w := run(x, y, k, g.Width)
			h := 1
			for y+h < g.Height {
				n := run(x, y+h, k, w)
				if strategy == StrategyShrinkWidth {
					if n == 0 {
						break
					}
					w = n
				} else if n < w {
					break
				}
				h++
			}
			for yy := y; yy < y+h; yy++ {
				for xx := x; xx < x+w; xx++ {
					visited[yy*g.Width+xx] = true
				}
			}
			rects = append(rects, Rect{ID: len(rects), X: x, Y: y, W: w, H: h, ColorID: k})
		}
	}
	return rects
}

// Cells emits one 1×1 rectangle per cell, used when merging is disabled.
func Cells(g Grid) []Rect {
	rects := make([]Rect, 0, len(g.Labels))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			rects = append(rects, Rect{ID: len(rects), X: x, Y: y, W: 1, H: 1, ColorID: g.At(x, y)})
		}
	}
	return rects
}
