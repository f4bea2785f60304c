package sentinel

import "errors"

// Sentinel errors for persistence facts. Stores return these (optionally
// wrapped) and services translate them into coded domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrAlreadyUsed: a unique key (course code, open enrollment) is taken
//   - ErrInvalidState: row is not in the state a conditional write required
//   - ErrTimeout: the database cancelled the statement; a write may have landed
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrTimeout      = errors.New("statement timed out")
)
