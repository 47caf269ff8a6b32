// Package posix implements the backend on plain file descriptors.
//
// Read, Write and Seek use read(2), write(2) and lseek(2) and therefore move
// the descriptor's offset. ReadAt and WriteAt use pread(2) and pwrite(2) and
// leave it alone; callers mixing both styles on one handle observe only the
// effect of the cursor-based calls.
package posix

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/internal/handle"
)

var _ backend.Backend = (*Backend)(nil)

// Options configures the POSIX backend.
type Options struct {
	Logger *slog.Logger
}

// Backend maps handles to file descriptors.
type Backend struct {
	log   *slog.Logger
	files *handle.Table[backend.Handle, int]

	down atomic.Bool
}

// New creates a POSIX backend.
func New(optFns ...func(*Options)) *Backend {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	b := &Backend{
		log:   opts.Logger.With("backend", backend.POSIX.String()),
		files: handle.NewTable[backend.Handle, int](),
	}
	b.log.Debug("backend initialized")
	return b
}

// Type implements backend.Backend.
func (b *Backend) Type() backend.Type { return backend.POSIX }

func (b *Backend) opError(op string, h backend.Handle, err error) error {
	b.log.Debug(op+" failed", "handle", h, "error", err)
	return &backend.OpError{Op: op, Backend: backend.POSIX, Handle: h, Err: err}
}

func (b *Backend) fd(op string, h backend.Handle) (int, error) {
	if b.down.Load() {
		return -1, b.opError(op, h, backend.ErrShutdown)
	}
	fd, ok := b.files.Get(h)
	if !ok {
		return -1, b.opError(op, h, backend.ErrInvalidHandle)
	}
	return fd, nil
}

// Open implements backend.Backend.
func (b *Backend) Open(path string) (backend.Handle, error) {
	if b.down.Load() {
		return backend.InvalidHandle, b.opError("open", backend.InvalidHandle, backend.ErrShutdown)
	}
	fd, err := retry(func() (int, error) {
		return unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	})
	if err != nil {
		b.log.Debug("open failed", "path", path, "error", err)
		return backend.InvalidHandle, &backend.OpError{Op: "open", Backend: backend.POSIX, Handle: backend.InvalidHandle, Path: path, Err: err}
	}

	h := b.files.Insert(fd)
	b.log.Debug("open completed", "path", path, "handle", h)
	return h, nil
}

// Close implements backend.Backend.
func (b *Backend) Close(h backend.Handle) error {
	fd, err := b.fd("close", h)
	if err != nil {
		return err
	}
	if err := unix.Close(fd); err != nil {
		return b.opError("close", h, err)
	}
	b.files.Remove(h)
	b.log.Debug("close completed", "handle", h)
	return nil
}

// Read implements backend.Backend.
func (b *Backend) Read(h backend.Handle, p []byte) (int, error) {
	fd, err := b.fd("read", h)
	if err != nil {
		return 0, err
	}
	n, err := retry(func() (int, error) { return unix.Read(fd, p) })
	if err != nil {
		return 0, b.opError("read", h, err)
	}
	b.log.Debug("read completed", "handle", h, "bytes", n)
	return n, nil
}

// Write implements backend.Backend.
func (b *Backend) Write(h backend.Handle, p []byte) (int, error) {
	fd, err := b.fd("write", h)
	if err != nil {
		return 0, err
	}
	n, err := retry(func() (int, error) { return unix.Write(fd, p) })
	if err != nil {
		return 0, b.opError("write", h, err)
	}
	b.log.Debug("write completed", "handle", h, "bytes", n)
	return n, nil
}

// Seek implements backend.Backend.
func (b *Backend) Seek(h backend.Handle, offset int64) error {
	fd, err := b.fd("seek", h)
	if err != nil {
		return err
	}
	if err := backend.CheckOffset(offset); err != nil {
		return b.opError("seek", h, err)
	}
	if _, err := unix.Seek(fd, offset, io.SeekStart); err != nil {
		return b.opError("seek", h, err)
	}
	b.log.Debug("seek completed", "handle", h, "offset", offset)
	return nil
}

// ReadAt implements backend.Backend.
func (b *Backend) ReadAt(h backend.Handle, p []byte, off int64) (int, error) {
	fd, err := b.fd("read_at", h)
	if err != nil {
		return 0, err
	}
	if err := backend.CheckOffset(off); err != nil {
		return 0, b.opError("read_at", h, err)
	}
	n, err := retry(func() (int, error) { return unix.Pread(fd, p, off) })
	if err != nil {
		return 0, b.opError("read_at", h, err)
	}
	b.log.Debug("read_at completed", "handle", h, "offset", off, "bytes", n)
	return n, nil
}

// WriteAt implements backend.Backend.
func (b *Backend) WriteAt(h backend.Handle, p []byte, off int64) (int, error) {
	fd, err := b.fd("write_at", h)
	if err != nil {
		return 0, err
	}
	if err := backend.CheckOffset(off); err != nil {
		return 0, b.opError("write_at", h, err)
	}
	n, err := retry(func() (int, error) { return unix.Pwrite(fd, p, off) })
	if err != nil {
		return 0, b.opError("write_at", h, err)
	}
	b.log.Debug("write_at completed", "handle", h, "offset", off, "bytes", n)
	return n, nil
}

// Shutdown closes every descriptor still open.
func (b *Backend) Shutdown() error {
	if b.down.Swap(true) {
		return backend.ErrShutdown
	}
	var errs []error
	for _, fd := range b.files.Drain() {
		if err := unix.Close(fd); err != nil {
			errs = append(errs, err)
		}
	}
	b.log.Debug("backend destroyed")
	return errors.Join(errs...)
}

// retry repeats fn while it is interrupted by a signal.
func retry(fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}
