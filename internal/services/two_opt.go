package services

import (
	"context"

	"route-optimizer-service/internal/domain"
)

// DefaultTwoOptMaxSweeps bounds the number of full sweeps TwoOpt performs.
const DefaultTwoOptMaxSweeps = 100

// TwoOpt improves a tour by reversing segments while that strictly shortens it.
//
// The first and last positions stay fixed. Each sweep scans i ascending, then
// j ascending, over 1 <= i < j <= n-2. An improving reversal is applied
// immediately and the sweep continues on the updated tour. Sweeps repeat until
// one finds no improvement or maxSweeps is reached.
//
// Tours shorter than 4 are returned unchanged. The input slice is not modified.
func TwoOpt(km [][]float64, tour domain.Tour, maxSweeps int) domain.Tour {
	best, _ := TwoOptContext(context.Background(), km, tour, maxSweeps)
	return best
}

// TwoOptContext is TwoOpt checking ctx before every sweep. On cancellation it
// returns the best tour found so far together with ctx.Err().
func TwoOptContext(ctx context.Context, km [][]float64, tour domain.Tour, maxSweeps int) (domain.Tour, error) {
	n := len(tour)
	if n < 4 {
		return tour, ctx.Err()
	}
	if maxSweeps <= 0 {
		maxSweeps = DefaultTwoOptMaxSweeps
	}

	best := append(domain.Tour(nil), tour...)
	bestDist := best.Distance(km)
	candidate := make(domain.Tour, n)

	for sweep := 0; sweep < maxSweeps; sweep++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		improved := false

		for i := 1; i < n-2; i++ {
			for j := i + 1; j < n-1; j++ {
				copy(candidate, best)
				reverse(candidate, i, j)

				if d := candidate.Distance(km); d < bestDist {
					best, candidate = candidate, best
					bestDist = d
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return best, nil
}

// reverse flips t[i..j] in place.
func reverse(t domain.Tour, i, j int) {
	for i < j {
		t[i], t[j] = t[j], t[i]
		i++
		j--
	}
}
