package collector

import (
	"errors"
	"io/fs"
	"syscall"
)

var (
	// ErrNoField indicates that a keyed line was absent from a file.
	ErrNoField = errors.New("collector: field not found")

	// ErrMalformed indicates that a file had fewer fields than expected
	// or a non-numeric token where a number was required.
	ErrMalformed = errors.New("collector: malformed data")

	// ErrEmpty indicates that a file had no content.
	ErrEmpty = errors.New("collector: empty file")
)

// isGone reports whether err is expected process churn: the file vanished,
// the process exited mid-read, access was denied or the field simply
// isn't there.
func isGone(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, ErrNoField) ||
		errors.Is(err, ErrEmpty)
}

// collapse turns a (value, error) pair into the value or its zero default.
// Malformed data is logged; churn is not.
func collapse[T any](c Config, what string, v T, err error) T {
	if err == nil {
		return v
	}
	if !isGone(err) {
		c.logf("%s: %v", what, err)
	}
	var zero T
	return zero
}
