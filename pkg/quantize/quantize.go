// Package quantize clusters feature vectors into a small set of
// representative centroids and assigns every vector a cluster label.
//
// Two paths exist:
//
//   - Exact: when the input holds no more distinct vectors than the requested
//     cluster count, those vectors become the centroids unchanged, in order of
//     first appearance. No blending occurs.
//   - Clustering: k-means++ seeding, a repulsion pass that pulls apart
//     centroids closer than [Options.MinSeparation], then Lloyd iterations.
//
// Output is a pure function of the inputs and [Options.Seed].
package quantize

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxIter bounds the Lloyd iterations when Options.MaxIter is unset.
const DefaultMaxIter = 24

// Vector is one point in feature space.
type Vector []float64

// Options configures a quantization run.
type Options struct {
	// K is the requested number of clusters. It is clamped to
	// [1, len(points)].
	K int
	// MaxIter bounds the assignment/update iterations.
	MaxIter int
	// Seed drives centroid seeding. Equal seeds give equal results.
	Seed uint64
	// MinSeparation is the distance under which two centroids are
	// considered duplicates and one is re-seeded. Zero disables repulsion.
	MinSeparation float64
}

// Result holds the centroids and the per-point labels.
type Result struct {
	// Centroids is indexed by cluster id.
	Centroids []Vector
	// Labels has one cluster id per input point.
	Labels []int
	// Exact reports that the distinct input vectors were used as-is.
	Exact bool
	// Iterations is the number of assignment passes performed. Zero on the
	// exact path.
	Iterations int
}

// K returns the number of clusters in the result.
func (r *Result) K() int { return len(r.Centroids) }

// Quantize clusters points. All points must share one dimension.
// An empty input yields an empty result.
func Quantize(points []Vector, opts Options) (*Result, error) {
	if len(points) == 0 {
		return &Result{}, nil
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("quantize: point %d has dimension %d, want %d", i, len(p), dim)
		}
	}

	k := min(max(opts.K, 1), len(points))
	maxIter := opts.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	if res, ok := exact(points, k); ok {
		return res, nil
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))
	centroids := seedPlusPlus(points, k, rng)
	repel(points, centroids, opts.MinSeparation)

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for iter < maxIter {
		iter++
		if !assign(points, centroids, labels) {
			break
		}
		update(points, centroids, labels)
		repel(points, centroids, opts.MinSeparation)
	}
	// Repulsion may have moved centroids after the last assignment.
	assign(points, centroids, labels)

	return &Result{Centroids: centroids, Labels: labels, Iterations: iter}, nil
}

// exact returns the distinct points as centroids when there are at most k of
// them.
func exact(points []Vector, k int) (*Result, bool) {
	index := make(map[string]int)
	var distinct []Vector
	labels := make([]int, len(points))
	buf := make([]byte, 8*len(points[0]))

	for i, p := range points {
		key := vectorKey(buf, p)
		id, ok := index[key]
		if !ok {
			if len(distinct) == k {
				return nil, false
			}
			id = len(distinct)
			index[key] = id
			distinct = append(distinct, append(Vector(nil), p...))
		}
		labels[i] = id
	}
	return &Result{Centroids: distinct, Labels: labels, Exact: true}, true
}

// vectorKey encodes the exact bit pattern of v so that equal vectors map to
// equal keys.
func vectorKey(buf []byte, v Vector) string {
	for i, c := range v {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(c))
	}
	return string(buf)
}

// seedPlusPlus picks the first centroid uniformly and every following one
// with probability proportional to its squared distance to the nearest
// centroid chosen so far.
func seedPlusPlus(points []Vector, k int, rng *rand.Rand) []Vector {
	centroids := make([]Vector, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))

	d2 := make([]float64, len(points))
	for i, p := range points {
		d2[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(d2)
		next := -1
		if total > 0 {
			r := rng.Float64() * total
			for i, w := range d2 {
				if w == 0 {
					continue
				}
				r -= w
				next = i
				if r < 0 {
					break
				}
			}
		}
		if next < 0 {
			next = rng.IntN(len(points))
		}
		c := clone(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

// repel moves the later centroid of every pair closer than minSep onto the
// point currently farthest from all centroids.
func repel(points []Vector, centroids []Vector, minSep float64) {
	if minSep <= 0 {
		return
	}
	limit := minSep * minSep
	for i := 0; i < len(centroids); i++ {
		for j := i + 1; j < len(centroids); j++ {
			if sqDist(centroids[i], centroids[j]) >= limit {
				continue
			}
			far, farD := farthest(points, centroids)
			if farD == 0 {
				return
			}
			copy(centroids[j], points[far])
		}
	}
}

// farthest returns the index of the point whose nearest centroid is most
// distant, and that squared distance. Ties keep the lowest index.
func farthest(points []Vector, centroids []Vector) (int, float64) {
	best, bestD := 0, -1.0
	for i, p := range points {
		_, d := nearest(p, centroids)
		if d > bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}

// nearest returns the closest centroid and its squared distance. Ties go to
// the lowest index.
func nearest(p Vector, centroids []Vector) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, cv := range centroids {
		if d := sqDist(p, cv); d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

// assign relabels every point and reports whether any label changed.
func assign(points []Vector, centroids []Vector, labels []int) bool {
	changed := false
	for i, p := range points {
		c, _ := nearest(p, centroids)
		if labels[i] != c {
			labels[i] = c
			changed = true
		}
	}
	return changed
}

// update moves every centroid to the mean of its members. Centroids without
// members stay where they are.
func update(points []Vector, centroids []Vector, labels []int) {
	dim := len(centroids[0])
	sums := make([]Vector, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make(Vector, dim)
	}
	for i, p := range points {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for c, n := range counts {
		if n == 0 {
			continue
		}
		floats.Scale(1/float64(n), sums[c])
		copy(centroids[c], sums[c])
	}
}

func sqDist(a, b Vector) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(v Vector) Vector {
	return append(Vector(nil), v...)
}
