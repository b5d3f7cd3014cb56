package live

import "errors"

// Kind classifies the outcome of one cycle.
type Kind int

const (
	KindOK Kind = iota
	// KindTransient failures are retried on the next cycle after a backoff.
	KindTransient
	// KindFatal stops the loop.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as one that must stop the loop.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err, or anything it wraps, was marked Fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// Classify maps an error to its Kind. Unmarked errors are transient.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case IsFatal(err):
		return KindFatal
	default:
		return KindTransient
	}
}
