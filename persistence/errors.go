package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistenceIO is matched by every *IOError.
	ErrPersistenceIO = errors.New("persistence I/O error")

	// ErrCorruptIndexFile is returned for files that cannot be decoded.
	ErrCorruptIndexFile = errors.New("corrupt index file")
)

// IOError records an underlying I/O failure and the operation that caused it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistenceIO.
func (e *IOError) Is(target error) bool { return target == ErrPersistenceIO }

func ioError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptIndexFile, fmt.Sprintf(format, args...))
}
