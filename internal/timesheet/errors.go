package timesheet

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies every error a week submission can end with.
type Kind string

const (
	KindMissingField     Kind = "MissingField"
	KindSumMismatch      Kind = "SumMismatch"
	KindInvalidOption    Kind = "InvalidOption"
	KindStoreUnavailable Kind = "StoreUnavailable"
	KindUnauthenticated  Kind = "Unauthenticated"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnauthenticated  = errors.New("no authenticated user")
)

// Mismatch is one weekday whose present allocations do not total 1.
type Mismatch struct {
	Weekday Weekday `json:"weekday"`
	Date    string  `json:"date"`
	Sum     float64 `json:"sum"`
}

// ValidationError rejects a grid before anything is written.
type ValidationError struct {
	Kind       Kind       `json:"kind"`
	Row        int        `json:"row"`
	Field      string     `json:"field,omitempty"`
	Value      string     `json:"value,omitempty"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("row %d: missing %s", e.Row+1, e.Field)
	case KindInvalidOption:
		return fmt.Sprintf("row %d: %s %q is not allowed", e.Row+1, e.Field, e.Value)
	case KindSumMismatch:
		parts := make([]string, len(e.Mismatches))
		for i, m := range e.Mismatches {
			parts[i] = fmt.Sprintf("%s %s", m.Weekday, FormatValue(m.Sum))
		}
		return "allocations must total 1: " + strings.Join(parts, ", ")
	}
	return string(e.Kind)
}

// KindOf reports the kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Kind
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	}
	return ""
}
