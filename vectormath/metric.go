package vectormath

// Metric selects the measure used to score how close two vectors are.
// Distance-based metrics are mapped into (0, 1] via DistanceSimilarity so
// that a higher score always means a closer match, regardless of metric.
type Metric uint8

const (
	// MetricCosine scores by the normalized dot product in [-1, 1].
	MetricCosine Metric = iota + 1
	// MetricEuclidean scores by L2 distance mapped through 1/(1+d).
	MetricEuclidean
	// MetricManhattan scores by L1 distance mapped through 1/(1+d).
	MetricManhattan
	// MetricDot scores by the raw dot product. Equivalent to cosine when
	// the inputs are unit vectors, but cheaper.
	MetricDot
)

var metricNames = map[Metric]string{
	MetricCosine:    "cosine",
	MetricEuclidean: "euclidean",
	MetricManhattan: "manhattan",
	MetricDot:       "dot",
}

// String returns the wire name of the metric.
func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether m is one of the defined metrics.
func (m Metric) Valid() bool {
	_, ok := metricNames[m]
	return ok
}

// ParseMetric converts a wire name back into a Metric.
func ParseMetric(name string) (Metric, error) {
	for m, n := range metricNames {
		if n == name {
			return m, nil
		}
	}
	return 0, ErrInvalidMetric
}

// Similarity scores a against b using the chosen metric. All metrics
// agree on direction: higher means more similar.
func Similarity(a, b []float32, metric Metric) (float32, error) {
	switch metric {
	case MetricCosine:
		return CosineSimilarity(a, b)
	case MetricEuclidean:
		d, err := EuclideanDistance(a, b)
		if err != nil {
			return 0, err
		}
		return DistanceSimilarity(d), nil
	case MetricManhattan:
		d, err := ManhattanDistance(a, b)
		if err != nil {
			return 0, err
		}
		return DistanceSimilarity(d), nil
	case MetricDot:
		return Dot(a, b)
	default:
		return 0, ErrInvalidMetric
	}
}

// Ranked pairs a candidate index with its similarity score against a query.
type Ranked struct {
	Index int
	Score float32
}

// RankTopK scores every candidate against query using the chosen metric
// and returns the k best in descending score order. Candidates with equal
// scores keep their input order, so the lowest index wins ties.
func RankTopK(query []float32, candidates [][]float32, k int, metric Metric) ([]Ranked, error) {
	if !metric.Valid() {
		return nil, ErrInvalidMetric
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		score, err := Similarity(query, c, metric)
		if err != nil {
			return nil, err
		}
		ranked[i] = Ranked{Index: i, Score: score}
	}

	return TopK(ranked, k, func(r Ranked) float32 { return r.Score }), nil
}
