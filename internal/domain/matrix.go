package domain

// DistanceSource names where a distance matrix came from.
type DistanceSource string

const (
	SourceRoadNetwork DistanceSource = "road-network"
	SourceGeodesic    DistanceSource = "geodesic"
)

// DistanceMatrix holds travel costs in kilometers keyed by stop index.
// Km[i][j] is the cost from i to j; the diagonal is zero. Road-network
// matrices may be asymmetric.
//
// Unreachable counts cells the routing service reported as null. Those cells
// hold 0, which is indistinguishable from a true zero distance to the heuristics.
//
// Seconds holds the routing service's travel times when it reported them and
// is nil otherwise. It is carried for caching only; schedules use the speed
// model.
type DistanceMatrix struct {
	Km          [][]float64
	Seconds     [][]float64
	Source      DistanceSource
	Unreachable int
}

// NewDistanceMatrix allocates an n×n zero matrix without travel times.
func NewDistanceMatrix(n int, source DistanceSource) *DistanceMatrix {
	return &DistanceMatrix{Km: square(n), Source: source}
}

// WithSeconds allocates a zero travel-time matrix and returns m.
func (m *DistanceMatrix) WithSeconds() *DistanceMatrix {
	m.Seconds = square(len(m.Km))
	return m
}

func (m *DistanceMatrix) Size() int { return len(m.Km) }

// DurationSeconds returns the travel time from i to j, or 0 when unknown.
func (m *DistanceMatrix) DurationSeconds(i, j int) float64 {
	if m.Seconds == nil {
		return 0
	}
	return m.Seconds[i][j]
}

func square(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	return rows
}

// HasDistances reports whether any off-diagonal cell is positive.
func (m *DistanceMatrix) HasDistances() bool {
	for i, row := range m.Km {
		for j, d := range row {
			if i != j && d > 0 {
				return true
			}
		}
	}
	return false
}

// Tour is an ordered permutation of stop indices.
type Tour []int

// IdentityTour returns 0..n-1, the caller's input order.
func IdentityTour(n int) Tour {
	t := make(Tour, n)
	for i := range t {
		t[i] = i
	}
	return t
}

// Distance sums the matrix along the tour. Tours shorter than 2 cost 0.
func (t Tour) Distance(km [][]float64) float64 {
	total := 0.0
	for i := 0; i < len(t)-1; i++ {
		total += km[t[i]][t[i+1]]
	}
	return total
}

// IsPermutation reports whether t visits every index in [0, n) exactly once.
func (t Tour) IsPermutation(n int) bool {
	if len(t) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range t {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
