package table

import (
	"errors"
	"fmt"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrEmptyGroup     = errors.New("aggregation over empty group")
	ErrSplitParameter = errors.New("invalid split parameter")
	ErrMissingKey     = errors.New("join key missing")
	ErrNilTable       = errors.New("nil table")
)

// ColumnNotFoundError names the referenced column that the table lacks.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %q", e.Name)
}

func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotFound }

// TypeMismatchError reports a value whose kind does not fit the operation,
// e.g. text in a column being scaled.
type TypeMismatchError struct {
	Column string
	Row    int
	Value  Value
	Want   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch in column %q row %d: %s value %q, want %s", e.Column, e.Row, e.Value.Kind(), e.Value.String(), e.Want)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// SplitParameterError is returned for a test fraction outside (0,1).
type SplitParameterError struct {
	Fraction float64
}

func (e *SplitParameterError) Error() string {
	return fmt.Sprintf("test fraction %v not in (0,1)", e.Fraction)
}

func (e *SplitParameterError) Is(target error) bool { return target == ErrSplitParameter }

// MissingKeyError is returned when a join key is absent from one side.
type MissingKeyError struct {
	Key  string
	Side string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("join key %q missing from %s table", e.Key, e.Side)
}

func (e *MissingKeyError) Is(target error) bool { return target == ErrMissingKey }
