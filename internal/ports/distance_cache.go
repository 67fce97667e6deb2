package ports

import "context"

// Persistent cache of road distances keyed by origin and destination keys.
// Keys are expected to be consistent (see domain.Coordinates.Key).
type DistanceCache interface {
	// Fetch cached distances for one origin and multiple destinations. Misses are absent from the map.
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	// Store many distance results for a single origin.
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}
