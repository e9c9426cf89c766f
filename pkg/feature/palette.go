package feature

import (
	"github.com/matzehuels/coloriage/pkg/quantize"
)

// Palette lists representative colors indexed by cluster id.
type Palette []RGB

// Hex returns the palette as #rrggbb strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = c.Hex()
	}
	return out
}

// BuildPalette averages the source colors of each cluster, rounding to the
// nearest integer channel value. Clusters without members fall back to their
// centroid mapped back through mode.
//
// On the exact quantization path every member of a cluster shares one
// color, so the palette reproduces the source colors unchanged.
func BuildPalette(buf *PixelBuffer, res *quantize.Result, mode Mode) Palette {
	k := res.K()
	sums := make([][3]int, k)
	counts := make([]int, k)
	for i, label := range res.Labels {
		c := buf.RGBAt(i)
		sums[label][0] += int(c[0])
		sums[label][1] += int(c[1])
		sums[label][2] += int(c[2])
		counts[label]++
	}

	p := make(Palette, k)
	for id := range p {
		n := counts[id]
		if n == 0 {
			p[id] = mode.Color(res.Centroids[id])
			continue
		}
		p[id] = RGB{
			uint8((sums[id][0] + n/2) / n),
			uint8((sums[id][1] + n/2) / n),
			uint8((sums[id][2] + n/2) / n),
		}
	}
	return p
}
