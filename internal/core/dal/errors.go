package dal

import (
	"errors"
	"fmt"

	perr "timejar/internal/platform/errors"
)

// ErrAlreadyConsumed is yielded when a single-pass sequence is ranged over twice
var ErrAlreadyConsumed = errors.New("dal: sequence already consumed")

// LoadError is a snapshot that failed to read or parse
type LoadError struct {
	Source Source
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("while processing %s: %v", e.Source.Path, e.Cause)
}

// Unwrap returns the underlying cause
func (e *LoadError) Unwrap() error { return e.Cause }

// Code classifies the error for perr.CodeOf
func (e *LoadError) Code() perr.ErrorCode { return perr.ErrorCodeLoad }

// OrderError is a row that would move the merged stream backwards in time
type OrderError struct {
	Row  RawRow
	Prev *RawRow
}

func (e *OrderError) Error() string {
	if e.Prev == nil {
		return fmt.Sprintf("expected %s to be ordered", e.Row)
	}
	return fmt.Sprintf("expected %s to be later than %s", e.Row, *e.Prev)
}

// Code classifies the error for perr.CodeOf
func (e *OrderError) Code() perr.ErrorCode { return perr.ErrorCodeOrder }

// DecodeError is a row whose required columns are missing or malformed
type DecodeError struct {
	Column string
	Row    RawRow
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q of %s: %v", e.Column, e.Row, e.Cause)
}

// Unwrap returns the underlying cause
func (e *DecodeError) Unwrap() error { return e.Cause }

// Code classifies the error for perr.CodeOf
func (e *DecodeError) Code() perr.ErrorCode { return perr.ErrorCodeDecode }
