package doi

import "errors"

var (
	// ErrInvalidValue reports a state, event, or credential value that does
	// not match any accepted literal.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidTransition reports a state pair with no authority event.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrNoUpdate reports a record whose desired snapshot equals the current one.
	ErrNoUpdate = errors.New("no update necessary")
)
