package mind

import "errors"

// Error taxonomy surfaced to callers (spec §7). Per-pathway errors are
// contained by circuit breakers and health counters; only these sentinels
// and caller-initiated cancellation escape a driver.
var (
	// ErrNoHealthyPathways means the pool is empty or every breaker is Open.
	ErrNoHealthyPathways = errors.New("mind: no healthy pathways available")

	// ErrAllPathwaysFailed means Racing exhausted every healthy pathway
	// without a non-empty response.
	ErrAllPathwaysFailed = errors.New("mind: all pathways failed to produce content")

	// ErrAllPathwaysExhausted means Sequential tried every pathway in the
	// pool without an accepted response.
	ErrAllPathwaysExhausted = errors.New("mind: sequential driver exhausted all pathways")

	// ErrNoValidResponses means Ensemble collected zero valid candidates.
	ErrNoValidResponses = errors.New("mind: ensemble received no valid candidates")

	// ErrNoPathwayForDecomposition means the decomposition engine could not
	// pick a pathway to perform decomposition.
	ErrNoPathwayForDecomposition = errors.New("mind: no pathway available for decomposition")
)

// DuplicatePathwayError is returned by AddPathway when the name is already
// registered.
type DuplicatePathwayError struct{ Name string }

func (e *DuplicatePathwayError) Error() string {
	return "mind: pathway already registered: " + e.Name
}

// UnknownPathwayError is returned by operations that reference a pathway by
// name that does not exist in the registry.
type UnknownPathwayError struct{ Name string }

func (e *UnknownPathwayError) Error() string {
	return "mind: unknown pathway: " + e.Name
}

// NoClientFactoryError is returned by AddPathway when no PathwayClient was
// supplied directly and the Mind has no ClientFactory to resolve one.
type NoClientFactoryError struct{ Name string }

func (e *NoClientFactoryError) Error() string {
	return "mind: no client factory configured to resolve pathway: " + e.Name
}
