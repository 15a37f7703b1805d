package core

import "errors"

// Error kinds. Callers classify failures with errors.Is; the codes map
// them to transport-level responses (NotFound to 404-style, the other
// two to 5xx-style).
var (
	// ErrNotFound reports a game or player that does not exist.
	// Recoverable; surfaced to the caller.
	ErrNotFound = errors.New("not found")

	// ErrInconsistent reports ledger state that should be impossible:
	// duplicate timestamps within a time control, a game referencing an
	// unknown player, a graph update on a missing edge. Fatal for the
	// operation.
	ErrInconsistent = errors.New("inconsistent ledger state")

	// ErrIO reports a filesystem failure: missing directory, unreadable
	// or corrupt shard file. Fatal for the operation.
	ErrIO = errors.New("storage failure")
)

// Error codes
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInconsistent = "INCONSISTENT_STATE"
	CodeIO           = "STORAGE_FAILURE"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorCode maps an error to its transport code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInconsistent):
		return CodeInconsistent
	case errors.Is(err, ErrIO):
		return CodeIO
	default:
		return CodeInternal
	}
}
