package network

import (
	"errors"
	"fmt"
)

var (
	// ErrInput matches every *InputError via errors.Is.
	ErrInput = errors.New("invalid input geometry")

	// ErrInvariant matches every *InvariantError via errors.Is.
	ErrInvariant = errors.New("internal invariant violation")
)

// InputError reports malformed input: a polyline with fewer than two
// vertices, a non-finite coordinate, or a geometry source that could not be
// read at all.
type InputError struct {
	Index  int // polyline position, -1 when the error is not tied to one
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	msg := e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("polyline %d: %s", e.Index, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

func (e *InputError) Is(target error) bool { return target == ErrInput }

// InvariantError reports that the merge process broke one of its own
// guarantees. It always indicates a bug, never bad input.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", e.Op, e.Detail)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }
