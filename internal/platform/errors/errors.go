// Package errors is the project error type, imported as perr.
// Codes drive sink retries, metric labels and ops HTTP statuses
package errors

import (
	stderrs "errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrorCode classifies errors across the pipeline, the sinks and the export client.
// The String form is what logs and metric labels carry
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeUnavailable is transient; a retry may succeed
	ErrorCodeUnavailable

	ErrorCodeInvalidArgument
	ErrorCodeValidation
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDuplicateKey
	ErrorCodeDB

	// ErrorCodeLoad is a snapshot that could not be read or parsed
	ErrorCodeLoad

	// ErrorCodeOrder is a row earlier than the last accepted row
	ErrorCodeOrder

	// ErrorCodeDecode is a row that could not become an entry
	ErrorCodeDecode

	// ErrorCodeExport is an upstream export that refused or broke
	ErrorCodeExport
)

var codeNames = [...]string{
	ErrorCodeUnknown:         "unknown",
	ErrorCodeUnavailable:     "unavailable",
	ErrorCodeInvalidArgument: "invalid_argument",
	ErrorCodeValidation:      "validation",
	ErrorCodeJSON:            "json",
	ErrorCodeNotFound:        "not_found",
	ErrorCodeDuplicateKey:    "duplicate_key",
	ErrorCodeDB:              "db",
	ErrorCodeLoad:            "load",
	ErrorCodeOrder:           "order",
	ErrorCodeDecode:          "decode",
	ErrorCodeExport:          "export",
}

func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "unknown"
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code for retry and ledger decisions next to the message.
// field names the offending column or config key; op names the step that failed
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// MarshalZerologObject renders the error as a structured log object.
// The logger installs it through zerolog.ErrorMarshalFunc
func (e *Error) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("msg", e.Error()).Str("code", e.code.String())
	if e.op != "" {
		ev.Str("op", e.op)
	}
	if e.field != "" {
		ev.Str("field", e.field)
	}
}

// root returns the deepest wrapped cause
func root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// Coder is implemented by domain errors that carry their own code without being *Error
type Coder interface {
	Code() ErrorCode
}

// CodeOf returns the code of the outermost coded error in err's chain, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	var c Coder
	if stderrs.As(err, &c) {
		return c.Code()
	}
	return ErrorCodeUnknown
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Retryable reports whether the error is worth another attempt.
// Unavailable errors always are; database errors defer to IsRetryable in pg.go
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if CodeOf(err) == ErrorCodeUnavailable {
		return true
	}
	return IsRetryable(err)
}
