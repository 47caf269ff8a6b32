package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle is returned when a handle is not open in the backend.
	ErrInvalidHandle = errors.New("invalid file handle")

	// ErrNegativeOffset is returned for seeks and positional I/O before the
	// start of the file.
	ErrNegativeOffset = errors.New("negative offset")

	// ErrShutdown is returned by backends that have already been shut down.
	ErrShutdown = errors.New("backend is shut down")
)

// OpError records the failed operation, the backend and the handle or path
// it was applied to.
//
// The underlying error (a sentinel from this package or a native errno) can be
// accessed via errors.Unwrap.
type OpError struct {
	Op      string
	Backend Type
	Handle  Handle
	Path    string
	Err     error
}

func (e *OpError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s handle %d: %v", e.Backend, e.Op, e.Handle, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// CheckOffset returns ErrNegativeOffset for off < 0.
func CheckOffset(off int64) error {
	if off < 0 {
		return ErrNegativeOffset
	}
	return nil
}
