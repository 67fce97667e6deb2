package domain

import "strings"

// Algorithm selects how a visiting order is produced.
type Algorithm string

const (
	AlgorithmNearestNeighbor Algorithm = "nearest-neighbor"
	AlgorithmTwoOpt          Algorithm = "2-opt"
	AlgorithmHybrid          Algorithm = "hybrid"
)

// ParseAlgorithm maps a user-supplied name to an Algorithm. Empty selects hybrid.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", AlgorithmHybrid:
		return AlgorithmHybrid, nil
	case AlgorithmNearestNeighbor:
		return AlgorithmNearestNeighbor, nil
	case AlgorithmTwoOpt:
		return AlgorithmTwoOpt, nil
	}
	return "", &InputError{Field: "algorithm", Reason: "must be one of nearest-neighbor, 2-opt, hybrid"}
}
