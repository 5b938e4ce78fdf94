package workout

import (
	"errors"
	"fmt"
)

// ErrInvalidEntry is wrapped by both ValidationError and ParseError,
// so callers can check for any malformed pending entry with errors.Is.
var ErrInvalidEntry = errors.New("invalid workout entry")

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = errors.New("workout run already in progress")

// ErrLogChanged is returned by a Store when the log received records from
// another writer after the snapshot was loaded. Nothing is saved.
var ErrLogChanged = errors.New("workout log changed since it was loaded")

// MaxSets bounds the sets declared by a single entry.
const MaxSets = 1000

// ValidationError means the declared sets count of an entry does not match
// the number of per-set values supplied for reps or weight.
type ValidationError struct {
	Index      int // position of the entry in the pending batch
	ExerciseID int
	Date       string
	Field      string
	Sets       int
	Values     int
}

func (e *ValidationError) Error() string {
	if e.Values < 0 {
		return fmt.Sprintf(
			"entry %d (exercise %d, %s): sets must be between 1 and %d, got %d",
			e.Index, e.ExerciseID, e.Date, MaxSets, e.Sets,
		)
	}
	return fmt.Sprintf(
		"entry %d (exercise %d, %s): %d sets declared, but %d %s values given",
		e.Index, e.ExerciseID, e.Date, e.Sets, e.Values, e.Field,
	)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEntry
}

// ParseError means a reps or weight token could not be read as a number.
type ParseError struct {
	Index      int // -1 when the spec was parsed outside of a batch
	ExerciseID int
	Field      string
	Token      string
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid number %q", e.Token)
	}
	return fmt.Sprintf(
		"entry %d (exercise %d): %s: invalid number %q",
		e.Index, e.ExerciseID, e.Field, e.Token,
	)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidEntry
}
