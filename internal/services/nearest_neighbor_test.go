package services

import (
	"math/rand"
	"testing"

	"route-optimizer-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func randomMatrix(r *rand.Rand, n int, symmetric bool) [][]float64 {
	km := make([][]float64, n)
	for i := range km {
		km[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if symmetric && j < i {
				km[i][j] = km[j][i]
				continue
			}
			km[i][j] = 1 + r.Float64()*50
		}
	}
	return km
}

func TestNearestNeighborTour_Degenerate(t *testing.T) {
	assert.Equal(t, domain.Tour{}, NearestNeighborTour(nil))
	assert.Equal(t, domain.Tour{0}, NearestNeighborTour([][]float64{{0}}))
}

func TestNearestNeighborTour_Permutation(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 2; n <= 30; n++ {
		tour := NearestNeighborTour(randomMatrix(r, n, false))
		assert.True(t, tour.IsPermutation(n), "n=%d tour=%v", n, tour)
		assert.Equal(t, 0, tour[0])
	}
}

func TestNearestNeighborTour_GreedyChoice(t *testing.T) {
	km := [][]float64{
		{0, 5, 1, 9},
		{5, 0, 2, 1},
		{1, 2, 0, 7},
		{9, 1, 7, 0},
	}
	assert.Equal(t, domain.Tour{0, 2, 1, 3}, NearestNeighborTour(km))
}

func TestNearestNeighborTour_TieGoesToLowestIndex(t *testing.T) {
	km := [][]float64{
		{0, 3, 3, 3},
		{3, 0, 3, 3},
		{3, 3, 0, 3},
		{3, 3, 3, 0},
	}
	assert.Equal(t, domain.Tour{0, 1, 2, 3}, NearestNeighborTour(km))
}

func TestNearestNeighborTour_UsesDirectionalCosts(t *testing.T) {
	// 0->2 is cheap but 2->0 is expensive; only the outgoing row matters.
	km := [][]float64{
		{0, 4, 1},
		{1, 0, 4},
		{9, 2, 0},
	}
	assert.Equal(t, domain.Tour{0, 2, 1}, NearestNeighborTour(km))
}
