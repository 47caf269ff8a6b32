package ompfile

import (
	"errors"

	"github.com/hupe1980/ompfile/backend"
)

var (
	// ErrAsyncNotSupported is returned for any request with async set.
	ErrAsyncNotSupported = errors.New("asynchronous I/O is not supported")

	// ErrNoBackend is returned by every operation when the selected backend
	// has no implementation.
	ErrNoBackend = errors.New("no active backend")

	// ErrClosed is returned by a Context after Close.
	ErrClosed = errors.New("context is closed")

	// ErrFinalized is the panic value of the package-level functions when
	// they are used after Finalize without a new Init.
	ErrFinalized = errors.New("ompfile used after Finalize")
)

// Status codes returned by Status. Zero is success, every failure is negative.
const (
	StatusOK            = 0
	StatusIOError       = -1
	StatusInvalidHandle = -2
	StatusUnsupported   = -3
	StatusNoBackend     = -4
	StatusClosed        = -5
)

// Status maps err to the integer status used by non-Go callers.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, backend.ErrInvalidHandle):
		return StatusInvalidHandle
	case errors.Is(err, ErrAsyncNotSupported):
		return StatusUnsupported
	case errors.Is(err, ErrNoBackend):
		return StatusNoBackend
	case errors.Is(err, ErrClosed), errors.Is(err, ErrFinalized), errors.Is(err, backend.ErrShutdown):
		return StatusClosed
	default:
		return StatusIOError
	}
}
