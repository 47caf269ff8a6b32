// Package ompfile provides backend-agnostic synchronous file I/O.
//
// One of three backends is selected when a Context is created and is never
// changed afterwards:
//
//   - MPI: collective parallel file I/O over a private communicator (default)
//   - POSIX: plain file descriptors
//   - IO_URING: an io_uring queue driven synchronously, one request at a time
//
// Every call goes through an admission token pool that bounds the number of
// operations in flight. A caller that finds no free token backs off, sleeping
// 1ms and doubling up to 100ms, until one is released. There is no fairness
// among waiters.
//
// # Explicit Context
//
//	c, err := ompfile.New(ompfile.WithBackend(backend.POSIX), ompfile.WithIOTokens(8))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	h, _ := c.Open("/data/out.bin")
//	n, _ := c.WriteAt(h, payload, 4096)
//	_ = c.CloseFile(h)
//
// # Package-Level Functions
//
// The package-level functions use a default Context built from the
// environment on first use:
//
//	LIBOMPFILE_BACKEND           MPI | POSIX | IO_URING | HDF5 (default MPI)
//	LIBOMPFILE_IO_TOKENS         positive integer (default 4)
//	LIBOMPFILE_IO_BYTES_PER_SEC  optional throughput cap
//	LIBOMPFILE_URING_DEPTH       io_uring queue depth (default 64)
//	LIBOMPFILE_MPI_ATOMIC        open MPI files in atomic mode
//	LIBOMPFILE_DEBUG             enable debug diagnostics
//
// Asynchronous requests are rejected with ErrAsyncNotSupported. Finalize
// destroys the default Context; using the package afterwards without Init
// panics.
//
//	h, err := ompfile.Open("/data/out.bin")
//	_, err = ompfile.Write(h, payload, false)
//	err = ompfile.CloseFile(h)
//	err = ompfile.Finalize()
//
// Short reads and writes are not errors: the byte count is returned and the
// caller decides.
package ompfile
