package dto

import "time"

type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Stop is a caller-supplied location. Lat and Lng are pointers so a missing
// coordinate can be told apart from 0.
type Stop struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Lat             *float64    `json:"lat"`
	Lng             *float64    `json:"lng"`
	Address         string      `json:"address,omitempty"`
	Priority        *int        `json:"priority,omitempty"`
	TimeWindow      *TimeWindow `json:"time_window,omitempty"`
	ServiceDuration *int        `json:"service_duration,omitempty"`
}

type OptimizeRequest struct {
	Stops        []Stop `json:"stops"`
	Algorithm    string `json:"algorithm"`
	UseRealRoads *bool  `json:"use_real_roads"`
	MaxStops     int    `json:"max_stops"`
	StartTime    string `json:"start_time"`
}

type RouteStop struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Lat                  float64     `json:"lat"`
	Lng                  float64     `json:"lng"`
	Address              string      `json:"address,omitempty"`
	Priority             *int        `json:"priority,omitempty"`
	TimeWindow           *TimeWindow `json:"time_window,omitempty"`
	Position             int         `json:"position"`
	DistanceFromPrevious float64     `json:"distance_from_previous"`
	ServiceDuration      int         `json:"service_duration"`
	ArriveAt             string      `json:"arrive_at"`
	DepartAt             string      `json:"depart_at"`
	OutsideTimeWindow    bool        `json:"outside_time_window,omitempty"`
}

type RouteMetadata struct {
	NumLocations        int          `json:"num_locations"`
	UsingRealRoads      bool         `json:"using_real_roads"`
	DistanceSource      string       `json:"distance_source"`
	UnreachablePairs    int          `json:"unreachable_pairs,omitempty"`
	RouteGeometry       [][2]float64 `json:"route_geometry"`
	RoadDistanceKm      *float64     `json:"road_distance_km,omitempty"`
	RoadDurationMinutes *float64     `json:"road_duration_minutes,omitempty"`
}

type Route struct {
	Stops            []RouteStop   `json:"stops"`
	TotalDistance    float64       `json:"total_distance"`
	OriginalDistance float64       `json:"original_distance"`
	Improvement      float64       `json:"improvement"`
	Algorithm        string        `json:"algorithm"`
	Efficiency       int           `json:"efficiency"`
	TotalDuration    int           `json:"total_duration"`
	EstimatedStart   string        `json:"estimated_start"`
	EstimatedEnd     string        `json:"estimated_end"`
	AverageLegKm     float64       `json:"average_leg_km"`
	LongestLegKm     float64       `json:"longest_leg_km"`
	Metadata         RouteMetadata `json:"metadata"`
}

type OptimizeMetadata struct {
	InputStops     int       `json:"input_stops"`
	OutputStops    int       `json:"output_stops"`
	Algorithm      string    `json:"algorithm"`
	UsingRealRoads bool      `json:"using_real_roads"`
	Timestamp      time.Time `json:"timestamp"`
}

type OptimizeResponse struct {
	Success  bool             `json:"success"`
	Route    Route            `json:"route"`
	Metadata OptimizeMetadata `json:"metadata"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	RoadNetwork string `json:"road_network"`
}
