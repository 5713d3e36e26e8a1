// internal/game/errors.go
//
// Error taxonomy for the game core.
//   - ValidationError: the request was malformed; no state was mutated.
//   - ErrLevelComplete: the level already reached a terminal state. Callers
//     turn it into an informational response carrying the final state.

package game

import "errors"

// ValidationError marks a rejected request (bad attempts range, malformed
// guess, duplicate guess). State is never mutated when one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrLevelComplete signals a guess against an already-finished level. Not a
// failure: the caller should answer with the level's final state.
var ErrLevelComplete = errors.New("level already complete")
