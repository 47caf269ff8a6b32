// Package backend defines the contract every ompfile I/O backend implements.
//
// A Backend maps opaque integer handles to backend-native resources and exposes
// the same seven operations regardless of the underlying mechanism:
//
//	type Backend interface {
//	    Open(path string) (Handle, error)
//	    Close(h Handle) error
//	    Read(h Handle, p []byte) (int, error)
//	    Write(h Handle, p []byte) (int, error)
//	    Seek(h Handle, offset int64) error
//	    ReadAt(h Handle, p []byte, off int64) (int, error)
//	    WriteAt(h Handle, p []byte, off int64) (int, error)
//	}
//
// # Built-in Implementations
//
//   - posix: raw file descriptors, pread/pwrite for positional I/O
//   - uring: io_uring driven synchronously (submit, then wait for one completion)
//   - mpiio: collective file I/O over a private duplicated communicator
//
// # Handles
//
// Handles are assigned from a per-backend monotonic counter and are never
// reused within the lifetime of a backend instance. A handle that is not (or no
// longer) open yields an error wrapping ErrInvalidHandle for every operation.
//
// # Short I/O
//
// Reads and writes that transfer fewer bytes than requested are reported as
// success; the transferred byte count is returned alongside the nil error.
package backend
