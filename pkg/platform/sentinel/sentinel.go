package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Upstream clients return these
// (optionally wrapped) so the core can tell an absent entity apart from a
// failed call, even though both end up as a failed check.
//
// - ErrNotFound: the registry has no entity for the key
// - ErrUnavailable: the registry could not be reached or refused to answer
// - ErrTimeout: the call or the wait for its result exceeded its bound
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
)
