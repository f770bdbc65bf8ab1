package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally wrapped)
// so the registration services can translate them into pipeline decisions.
//
//   - ErrNotFound: no registration row for the natural key
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrUnavailable: backing store or broker temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
