package errs

import "errors"

// loggedError marks an error that was already logged where it happened,
// with the context only that layer had.
type loggedError struct {
	err error
}

func (e *loggedError) Error() string {
	return e.err.Error()
}

func (e *loggedError) Unwrap() error {
	return e.err
}

// MarkLogged wraps err so later layers can tell it was already logged.
// errors.Is and errors.As still see through it.
func MarkLogged(err error) error {
	if err == nil || IsLogged(err) {
		return err
	}
	return &loggedError{err: err}
}

// IsLogged reports whether err, or anything it wraps, went through
// MarkLogged.
func IsLogged(err error) bool {
	var le *loggedError
	return errors.As(err, &le)
}
