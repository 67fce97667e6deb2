// Package geo implements the straight-line (great-circle) distance model.
//
// All functions are pure. Distances are kilometers rounded to 2 decimals,
// matching what the route optimizer reports to callers.
package geo

import (
	"math"
	"runtime"

	"route-optimizer-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultEarthRadiusKm   = 6371.0
	DefaultAverageSpeedKph = 40.0
)

// Rows above this size are computed concurrently. Results are identical either way.
const parallelMatrixThreshold = 64

// Model carries the constants of the geodesic model.
type Model struct {
	EarthRadiusKm   float64
	AverageSpeedKph float64
}

// Default is the model with the Earth's mean radius and a 40 km/h urban speed.
var Default = Model{EarthRadiusKm: DefaultEarthRadiusKm, AverageSpeedKph: DefaultAverageSpeedKph}

// Distance returns the haversine distance between two points in km.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	return Default.Distance(lat1, lng1, lat2, lng2)
}

// BuildMatrix returns the n×n pairwise distance matrix under the default model.
func BuildMatrix(points []domain.Coordinates) [][]float64 { return Default.BuildMatrix(points) }

// RouteDistance sums consecutive distances along points under the default model.
func RouteDistance(points []domain.Coordinates) float64 { return Default.RouteDistance(points) }

// TravelTime estimates minutes for distanceKm under the default model.
func TravelTime(distanceKm float64) int { return Default.TravelTime(distanceKm) }

func (m Model) Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return Round(m.EarthRadiusKm*c, 2)
}

func (m Model) BuildMatrix(points []domain.Coordinates) [][]float64 {
	n := len(points)
	matrix := make([][]float64, n)

	fillRow := func(i int) {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			row[j] = m.Distance(points[i].Lat, points[i].Lon, points[j].Lat, points[j].Lon)
		}
		matrix[i] = row
	}

	if n <= parallelMatrixThreshold {
		for i := 0; i < n; i++ {
			fillRow(i)
		}
		return matrix
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fillRow(i)
			return nil
		})
	}
	_ = g.Wait()

	return matrix
}

func (m Model) RouteDistance(points []domain.Coordinates) float64 {
	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += m.Distance(points[i].Lat, points[i].Lon, points[i+1].Lat, points[i+1].Lon)
	}
	return Round(total, 2)
}

// TravelTime is a coarse estimate: distance at the model's average speed, in whole minutes.
func (m Model) TravelTime(distanceKm float64) int {
	if m.AverageSpeedKph <= 0 {
		return 0
	}
	return int(math.Round(distanceKm / m.AverageSpeedKph * 60))
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
