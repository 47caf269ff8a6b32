package ompfile

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/ompfile/backend"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, StatusOK},
		{"native", &backend.OpError{Op: "read", Backend: backend.POSIX, Err: syscall.EIO}, StatusIOError},
		{"plain", errors.New("boom"), StatusIOError},
		{"invalid handle", &backend.OpError{Op: "read", Backend: backend.MPI, Handle: 9, Err: backend.ErrInvalidHandle}, StatusInvalidHandle},
		{"async", ErrAsyncNotSupported, StatusUnsupported},
		{"no backend", ErrNoBackend, StatusNoBackend},
		{"closed", fmt.Errorf("wrapped: %w", ErrClosed), StatusClosed},
		{"finalized", ErrFinalized, StatusClosed},
		{"backend shut down", &backend.OpError{Op: "read", Backend: backend.POSIX, Handle: 1, Err: backend.ErrShutdown}, StatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}
