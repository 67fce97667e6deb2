package services

import (
	"math"

	"route-optimizer-service/internal/domain"
)

// NearestNeighborTour builds a visiting order greedily over a distance matrix.
//
// The tour starts at index 0 and repeatedly moves to the closest unvisited
// index. Ties go to the lowest index, so the result is deterministic for a
// given matrix. It is a starting point for TwoOpt, not a final answer.
func NearestNeighborTour(km [][]float64) domain.Tour {
	n := len(km)
	if n == 0 {
		return domain.Tour{}
	}

	tour := make(domain.Tour, 0, n)
	visited := make([]bool, n)

	current := 0
	tour = append(tour, current)
	visited[current] = true

	for len(tour) < n {
		next := -1
		best := math.Inf(1)

		// Ascending scan with strict < keeps the first index on ties.
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if km[current][j] < best || next == -1 {
				best = km[current][j]
				next = j
			}
		}

		tour = append(tour, next)
		visited[next] = true
		current = next
	}

	return tour
}
