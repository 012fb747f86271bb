package errs

import "errors"

// InfraError wraps a storage or remote-call failure. It matches both ErrUnavailable
// and the original cause, so callers can tell "does not exist" apart from
// "could not determine whether it exists".
type InfraError struct {
	Op  string
	Err error
}

// Unavailable wraps err as an infrastructure failure of operation op.
// Already-wrapped errors are returned unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InfraError
	if errors.As(err, &ie) {
		return err
	}
	return &InfraError{Op: op, Err: err}
}

func (e *InfraError) Error() string {
	return e.Op + ": " + ErrUnavailable.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *InfraError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}
