package types

import "errors"

// Failure taxonomy shared by the state-machine components. Every rejection
// of a mutating operation wraps exactly one of these sentinels, so callers
// (and the HTTP layer) can classify failures with errors.Is without parsing
// messages. Proof verification failures carry their own sentinel in the
// confidential package and are propagated unchanged.
var (
	// ErrAuthorization is wrapped when the caller is not the poll creator
	// or the service owner for an operation that requires it.
	ErrAuthorization = errors.New("not authorized")
	// ErrNotFound is wrapped when a poll, option, commitment or comment
	// index is out of range.
	ErrNotFound = errors.New("not found")
	// ErrState is wrapped when the operation is valid in shape but the
	// poll is in the wrong state for it: inactive, outside its time
	// window, already voted, already revealed, comments disabled or the
	// comment quota exhausted.
	ErrState = errors.New("invalid state")
	// ErrValidation is wrapped on malformed input: mismatched array
	// lengths, option count out of bounds, invalid time range or an
	// incorrect creation payment.
	ErrValidation = errors.New("validation failed")
)
