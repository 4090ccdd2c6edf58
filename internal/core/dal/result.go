package dal

// Kind tags what a Result carries
type Kind uint8

const (
	// KindOK is a successfully produced item
	KindOK Kind = iota

	// KindLoadError is a snapshot that could not be read or parsed; its rows are absent
	KindLoadError

	// KindOrderError is a row dated before the last accepted row; the row is dropped
	KindOrderError

	// KindDecodeError is a row that could not be decoded while decoding is lenient
	KindDecodeError

	// KindFatal ends the sequence; nothing follows it
	KindFatal
)

// String returns a short label for logs and metrics
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindLoadError:
		return "load_error"
	case KindOrderError:
		return "order_error"
	case KindDecodeError:
		return "decode_error"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Result is one item of a pipeline sequence: either a value or an in-band error.
// Consumers switch on Kind rather than inspecting error types
type Result[T any] struct {
	kind   Kind
	value  T
	err    error
	source Source
}

// OK wraps a successful value produced while reading src
func OK[T any](v T, src Source) Result[T] {
	return Result[T]{kind: KindOK, value: v, source: src}
}

// Fail wraps an error of the given kind; kind must not be KindOK
func Fail[T any](kind Kind, err error, src Source) Result[T] {
	if kind == KindOK {
		kind = KindFatal
	}
	return Result[T]{kind: kind, err: err, source: src}
}

// retag carries an error result across element types
func retag[U, T any](r Result[T]) Result[U] {
	return Result[U]{kind: r.kind, err: r.err, source: r.source}
}

// Kind returns the tag
func (r Result[T]) Kind() Kind { return r.kind }

// IsOK reports whether the result carries a value
func (r Result[T]) IsOK() bool { return r.kind == KindOK }

// IsFatal reports whether the result terminated its sequence
func (r Result[T]) IsFatal() bool { return r.kind == KindFatal }

// Value returns the value and true for KindOK, the zero value and false otherwise
func (r Result[T]) Value() (T, bool) {
	if r.kind != KindOK {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Err returns the carried error, nil for KindOK
func (r Result[T]) Err() error { return r.err }

// Source returns the snapshot the item came from (zero for pass-level fatals)
func (r Result[T]) Source() Source { return r.source }
