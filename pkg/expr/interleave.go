package expr

// Interleave merges buckets so that each bucket's share of any output prefix
// follows its weight. At every step the non-empty bucket with the lowest
// picked/weight ratio contributes its next item; ties go to the lowest bucket
// index. Missing weights count as 1. Buckets with a non-positive weight are
// drained round-robin after every positively weighted bucket is empty.
// Bucket order is preserved within each bucket.
func Interleave[T any](buckets [][]T, weights []float64) []T {
	total := 0
	w := make([]float64, len(buckets))
	for i, b := range buckets {
		total += len(b)
		w[i] = 1
		if i < len(weights) {
			w[i] = max(weights[i], 0)
		}
	}

	used := make([]int, len(buckets))
	out := make([]T, 0, total)
	for len(out) < total {
		best, bestDeferred, bestScore := -1, false, 0.0
		for i, b := range buckets {
			if used[i] >= len(b) {
				continue
			}
			deferred := w[i] == 0
			score := float64(used[i])
			if !deferred {
				score /= w[i]
			}
			if best < 0 || (!deferred && bestDeferred) ||
				(deferred == bestDeferred && score < bestScore) {
				best, bestDeferred, bestScore = i, deferred, score
			}
		}
		out = append(out, buckets[best][used[best]])
		used[best]++
	}
	return out
}
