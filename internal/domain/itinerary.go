package domain

// Represents a single stop in the optimized itinerary.
// Position is 1-based; DistanceFromPreviousKm is zero for the first stop.
// Arrival and departure times are estimates derived from the average speed model.
type ItineraryStop struct {
	Stop
	Position               int
	DistanceFromPreviousKm float64
	ServiceMinutes         int
	ArriveAt               ClockTime
	DepartAt               ClockTime
	OutsideTimeWindow      bool
}

// Road path for map display, as returned by the routing service.
// Coordinates are ordered [lon, lat] pairs.
type RouteGeometry struct {
	DistanceKm      float64
	DurationMinutes float64
	Coordinates     [][2]float64
}

type ResultMetadata struct {
	NumStops            int
	UsingRealRoads      bool
	DistanceSource      DistanceSource
	UnreachablePairs    int
	RouteGeometry       [][2]float64
	RoadDistanceKm      *float64
	RoadDurationMinutes *float64
}

// OptimizationResult is the output of a single optimization run.
// It is immutable planning data and carries no references back into the engine.
type OptimizationResult struct {
	Stops                []ItineraryStop
	TotalDistanceKm      float64
	OriginalDistanceKm   float64
	ImprovementPct       float64
	Efficiency           int
	TotalDurationMinutes int
	EstimatedStart       ClockTime
	EstimatedEnd         ClockTime
	AverageLegKm         float64
	LongestLegKm         float64
	Algorithm            Algorithm
	Metadata             ResultMetadata
}
