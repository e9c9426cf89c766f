package tiling

import (
	"fmt"
)

// Index maps every cell to the ID of the rectangle covering it. Cells not
// covered by any rectangle hold -1.
func Index(rects []Rect, w, h int) []int {
	idx := make([]int, w*h)
	for i := range idx {
		idx[i] = -1
	}
	for _, r := range rects {
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				idx[y*w+x] = r.ID
			}
		}
	}
	return idx
}

// Lookup returns the rectangle ID at cell (x, y), or -1 when the point lies
// outside the grid.
func Lookup(idx []int, w, x, y int) int {
	if w <= 0 || x < 0 || y < 0 || x >= w || y*w+x >= len(idx) {
		return -1
	}
	return idx[y*w+x]
}

// Validate checks that rects cover every cell of g exactly once and that
// every covered cell carries its rectangle's label.
func Validate(rects []Rect, g Grid) error {
	seen := make([]int, len(g.Labels))
	for _, r := range rects {
		if r.W < 1 || r.H < 1 {
			return fmt.Errorf("rect %d has empty size %dx%d", r.ID, r.W, r.H)
		}
		if r.X < 0 || r.Y < 0 || r.X+r.W > g.Width || r.Y+r.H > g.Height {
			return fmt.Errorf("rect %d exceeds the %dx%d grid", r.ID, g.Width, g.Height)
		}
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				i := y*g.Width + x
				if seen[i]++; seen[i] > 1 {
					return fmt.Errorf("cell (%d,%d) covered twice", x, y)
				}
				if g.Labels[i] != r.ColorID {
					return fmt.Errorf("cell (%d,%d) has label %d inside rect %d of color %d", x, y, g.Labels[i], r.ID, r.ColorID)
				}
			}
		}
	}
	for i, n := range seen {
		if n == 0 {
			return fmt.Errorf("cell (%d,%d) not covered", i%g.Width, i/g.Width)
		}
	}
	return nil
}
