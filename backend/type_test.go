package backend

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
		ok   bool
	}{
		{"MPI", MPI, true},
		{"POSIX", POSIX, true},
		{"IO_URING", IOURing, true},
		{"HDF5", HDF5, true},
		{"posix", POSIX, true},
		{"  io_uring\n", IOURing, true},
		{"", MPI, false},
		{"IOURING", MPI, false},
		{"NFS", MPI, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "MPI", MPI.String())
	assert.Equal(t, "IO_URING", IOURing.String())
	assert.Equal(t, "UNKNOWN", Type(42).String())
}

func TestImplemented(t *testing.T) {
	assert.True(t, MPI.Implemented())
	assert.True(t, POSIX.Implemented())
	assert.True(t, IOURing.Implemented())
	assert.False(t, HDF5.Implemented())
}

func TestOpError(t *testing.T) {
	err := error(&OpError{Op: "read", Backend: POSIX, Handle: 3, Err: syscall.EBADF})
	assert.Equal(t, "POSIX read handle 3: bad file descriptor", err.Error())
	assert.True(t, errors.Is(err, syscall.EBADF))

	err = &OpError{Op: "open", Backend: IOURing, Handle: InvalidHandle, Path: "/x", Err: syscall.ENOENT}
	assert.Equal(t, `IO_URING open "/x": no such file or directory`, err.Error())
}

func TestCheckOffset(t *testing.T) {
	assert.NoError(t, CheckOffset(0))
	assert.NoError(t, CheckOffset(1<<40))
	assert.ErrorIs(t, CheckOffset(-1), ErrNegativeOffset)
}
