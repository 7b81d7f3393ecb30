package ranking

import "errors"

// Sentinel kinds for ranking contract violations. The engine refuses to
// produce a ranking rather than emit a silently wrong order; no partial
// results are returned on failure.
var (
	ErrEmptyBatch     = errors.New("empty competitor batch")
	ErrLengthMismatch = errors.New("event sequence length mismatch")
	ErrNonFinite      = errors.New("non-finite numeric value")
	ErrTotalsMismatch = errors.New("stored totals do not match event sums")
)
