// Package vectormath implements the similarity arithmetic used by
// retrieval and embedding analysis. Every function is pure: no I/O, no
// shared state, deterministic results for identical inputs.
//
// Vectors are []float32 as produced by embedding providers. Accumulation
// happens in float64 to limit rounding drift on high-dimensional input.
// Mismatched dimensions are an error; zero vectors are not, they simply
// yield zero similarity.
package vectormath

import (
	"fmt"
	"math"
	"slices"
)

// Dot returns the dot product of a and b.
func Dot(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum), nil
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// CosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. A zero vector on either side yields 0 rather than NaN, so
// unembedded or degenerate vectors rank below any real match.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum)), nil
}

// ManhattanDistance returns the L1 distance between a and b.
func ManhattanDistance(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return float32(sum), nil
}

// DistanceSimilarity converts a non-negative distance into a similarity
// in (0, 1] using 1/(1+d). Distance 0 maps to 1; growing distance decays
// toward 0.
func DistanceSimilarity(distance float32) float32 {
	return float32(1 / (1 + float64(distance)))
}

// Normalize returns a unit-length copy of v. The input is never mutated.
// A zero vector normalizes to a zero copy instead of producing NaN.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	mag := float64(Magnitude(v))
	if mag == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

// Centroid returns the component-wise mean of vectors. All inputs must
// share one dimension.
func Centroid(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}

	dims := len(vectors[0])
	sums := make([]float64, dims)
	for _, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v), dims)
		}
		for i, x := range v {
			sums[i] += float64(x)
		}
	}

	out := make([]float32, dims)
	n := float64(len(vectors))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out, nil
}

// TopK returns the k highest-scoring items in descending score order.
// The sort is stable: items with equal scores keep their input order,
// which makes result ordering deterministic across runs. The input slice
// is never mutated; fewer than k items returns them all.
func TopK[T any](items []T, k int, score func(T) float32) []T {
	if k <= 0 || len(items) == 0 {
		return nil
	}

	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b T) int {
		sa, sb := score(a), score(b)
		if sa > sb {
			return -1
		}
		if sa < sb {
			return 1
		}
		return 0
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Cluster is a group of mutually similar vectors. Members holds indices
// into the input slice; Centroid is the element-wise mean of the members.
type Cluster struct {
	Members  []int
	Centroid []float32
}

// ClusterBySimilarity greedily groups vectors whose similarity to a
// cluster's seed (its first member) is at least threshold. Each vector
// joins the earliest matching cluster or starts a new one, so output
// order follows input order. Single-pass: assignments are never revisited
// when later vectors shift a centroid.
func ClusterBySimilarity(vectors [][]float32, threshold float32, metric Metric) ([]Cluster, error) {
	if !metric.Valid() {
		return nil, ErrInvalidMetric
	}

	var clusters []Cluster
	for i, v := range vectors {
		placed := false
		for c := range clusters {
			seed := vectors[clusters[c].Members[0]]
			sim, err := Similarity(seed, v, metric)
			if err != nil {
				return nil, err
			}
			if sim >= threshold {
				clusters[c].Members = append(clusters[c].Members, i)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, Cluster{Members: []int{i}})
		}
	}

	for c := range clusters {
		members := make([][]float32, len(clusters[c].Members))
		for j, idx := range clusters[c].Members {
			members[j] = vectors[idx]
		}
		centroid, err := Centroid(members)
		if err != nil {
			return nil, err
		}
		clusters[c].Centroid = centroid
	}

	return clusters, nil
}
