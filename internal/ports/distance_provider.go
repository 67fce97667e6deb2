package ports

import "errors"

// Distance and travel duration between two locations, as cached from the routing service.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

var (
	// The batched lookup failed and the stop count is above the pairwise fallback threshold.
	// Callers must surface this rather than degrade silently.
	ErrPairwiseNotApplicable = errors.New("road network: batched lookup failed and pairwise fallback not applicable")

	// The provider declined to call the routing service while it is cooling down after failures.
	ErrServiceCoolingDown = errors.New("road network: service cooling down after recent failures")

	// The routing service answered but every off-diagonal distance was zero or null.
	ErrEmptyMatrix = errors.New("road network: no usable distances returned")
)
