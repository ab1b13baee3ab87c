package analyzer

import (
	"errors"
	"fmt"
)

// Kind tags why a sequence was rejected.
type Kind int

const (
	// EmptySequence means nothing was left after header and space removal.
	EmptySequence Kind = iota + 1
	// InvalidCharacters means a character outside A, T, G, C was found.
	InvalidCharacters
)

// Message returns the fixed user-facing text for the kind.
func (k Kind) Message() string {
	switch k {
	case EmptySequence:
		return "No valid DNA sequence found."
	case InvalidCharacters:
		return "Sequence contains non-DNA characters."
	default:
		return "Unknown validation error."
	}
}

// String returns a stable identifier used in logs and JSON.
func (k Kind) String() string {
	switch k {
	case EmptySequence:
		return "empty_sequence"
	case InvalidCharacters:
		return "invalid_characters"
	default:
		return "unknown"
	}
}

// ValidationError replaces a Result when the cleaned sequence is rejected.
// Offset and Char locate the first offending character for InvalidCharacters;
// they do not change the message.
type ValidationError struct {
	Kind   Kind
	Offset int
	Char   rune
}

func (e *ValidationError) Error() string { return e.Kind.Message() }

// Is matches any ValidationError of the same kind, so callers can use
// errors.Is(err, ErrInvalidCharacters) regardless of position details.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrEmptySequence     = &ValidationError{Kind: EmptySequence}
	ErrInvalidCharacters = &ValidationError{Kind: InvalidCharacters}
)

// ErrInput matches every InputError.
var ErrInput = errors.New("input error")

// InputError reports that raw text could not be obtained from its source.
// It is never a validation outcome.
type InputError struct {
	Op  string
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Is(target error) bool { return target == ErrInput }

// AsValidation returns the ValidationError wrapped in err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
