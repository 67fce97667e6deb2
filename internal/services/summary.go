package services

import (
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/geo"
)

// efficiencyScore grades a route by its average leg length in km.
func efficiencyScore(totalKm float64, numStops int) int {
	legs := numStops - 1
	if legs < 1 {
		legs = 1
	}

	avg := totalKm / float64(legs)
	switch {
	case avg < 5:
		return 100
	case avg < 10:
		return 80
	case avg < 15:
		return 60
	default:
		return 40
	}
}

// improvementPct returns the percentage saved against the input order, to 1 decimal.
func improvementPct(originalKm, optimizedKm float64) float64 {
	if originalKm <= 0 {
		return 0
	}
	return geo.Round((originalKm-optimizedKm)/originalKm*100, 1)
}

// buildItinerary converts a tour back into stops with leg distances and an
// estimated schedule starting at start.
//
// Leg distances come from the same matrix used for optimization. Travel time
// per leg uses the geodesic speed model even when road distances were used,
// rounded per leg. elapsedMinutes runs from start to the last departure.
func (o *Optimizer) buildItinerary(
	stops []domain.Stop,
	m *domain.DistanceMatrix,
	tour domain.Tour,
	start domain.ClockTime,
) (items []domain.ItineraryStop, elapsedMinutes int, longestKm float64) {
	items = make([]domain.ItineraryStop, len(tour))
	clock := start

	for pos, idx := range tour {
		leg := 0.0
		if pos > 0 {
			leg = m.Km[tour[pos-1]][idx]
			travel := o.geo.TravelTime(leg)
			clock = clock.Add(travel)
			elapsedMinutes += travel
		}
		if leg > longestKm {
			longestKm = leg
		}

		s := stops[idx]
		svc := s.ServiceDuration(o.cfg.DefaultServiceMinutes)
		elapsedMinutes += svc

		item := domain.ItineraryStop{
			Stop:                   s,
			Position:               pos + 1,
			DistanceFromPreviousKm: geo.Round(leg, 2),
			ServiceMinutes:         svc,
			ArriveAt:               clock,
			DepartAt:               clock.Add(svc),
		}
		if s.TimeWindow != nil {
			// Windows were validated up front.
			if ok, err := s.TimeWindow.Contains(clock); err == nil && !ok {
				item.OutsideTimeWindow = true
			}
		}

		items[pos] = item
		clock = item.DepartAt
	}

	return items, elapsedMinutes, longestKm
}
