// Package uring implements the backend on an io_uring submission/completion
// queue driven synchronously.
//
// One ring is shared by every handle. Each operation prepares a single request
// with an explicit offset, submits it and blocks for its completion, so the
// backend behaves synchronously even though the kernel interface is not.
//
// Because every request carries its offset, the backend tracks a logical
// offset per handle: Read and Write use it and advance it by the number of
// bytes the completion reports, ReadAt and WriteAt ignore it, and Seek only
// updates it. Close is a plain close(2), not a queued request.
package uring

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/internal/handle"
	iouring "github.com/hupe1980/ompfile/internal/uring"
)

var _ backend.Backend = (*Backend)(nil)

// DefaultQueueDepth is the ring depth used when none is configured.
const DefaultQueueDepth = iouring.DefaultEntries

// ErrNotSupported is returned by New when the platform has no io_uring.
var ErrNotSupported = iouring.ErrNotSupported

// Options configures the io_uring backend.
type Options struct {
	Logger     *slog.Logger
	QueueDepth uint32
}

type file struct {
	fd     int
	offset atomic.Int64
}

// Backend maps handles to {descriptor, logical offset} records.
type Backend struct {
	log   *slog.Logger
	ring  *iouring.Ring
	files *handle.Table[backend.Handle, *file]

	down atomic.Bool
}

// New sets up the ring. It fails when the kernel refuses io_uring.
func New(optFns ...func(*Options)) (*Backend, error) {
	opts := Options{QueueDepth: DefaultQueueDepth}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	log := opts.Logger.With("backend", backend.IOURing.String())

	ring, err := iouring.New(opts.QueueDepth)
	if err != nil {
		log.Debug("ring setup failed", "error", err)
		return nil, err
	}
	log.Debug("backend initialized", "queue_depth", ring.Entries())

	return &Backend{
		log:   log,
		ring:  ring,
		files: handle.NewTable[backend.Handle, *file](),
	}, nil
}

// Type implements backend.Backend.
func (b *Backend) Type() backend.Type { return backend.IOURing }

func (b *Backend) opError(op string, h backend.Handle, err error) error {
	b.log.Debug(op+" failed", "handle", h, "error", err)
	return &backend.OpError{Op: op, Backend: backend.IOURing, Handle: h, Err: err}
}

func (b *Backend) file(op string, h backend.Handle) (*file, error) {
	if b.down.Load() {
		return nil, b.opError(op, h, backend.ErrShutdown)
	}
	f, ok := b.files.Get(h)
	if !ok {
		return nil, b.opError(op, h, backend.ErrInvalidHandle)
	}
	return f, nil
}

// submitAndWait funnels every data transfer through the ring and turns a
// negative completion result into its errno.
func (b *Backend) submitAndWait(req iouring.Request) (int, error) {
	res, err := b.ring.SubmitAndWait(req)
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, unix.Errno(-res)
	}
	return int(res), nil
}

// Open implements backend.Backend.
func (b *Backend) Open(path string) (backend.Handle, error) {
	if b.down.Load() {
		return backend.InvalidHandle, b.opError("open", backend.InvalidHandle, backend.ErrShutdown)
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	for err == unix.EINTR {
		fd, err = unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	}
	if err != nil {
		b.log.Debug("open failed", "path", path, "error", err)
		return backend.InvalidHandle, &backend.OpError{Op: "open", Backend: backend.IOURing, Handle: backend.InvalidHandle, Path: path, Err: err}
	}

	h := b.files.Insert(&file{fd: fd})
	b.log.Debug("open completed", "path", path, "handle", h)
	return h, nil
}

// Close implements backend.Backend.
func (b *Backend) Close(h backend.Handle) error {
	f, err := b.file("close", h)
	if err != nil {
		return err
	}
	if err := unix.Close(f.fd); err != nil {
		return b.opError("close", h, err)
	}
	b.files.Remove(h)
	b.log.Debug("close completed", "handle", h)
	return nil
}

// Read implements backend.Backend.
func (b *Backend) Read(h backend.Handle, p []byte) (int, error) {
	f, err := b.file("read", h)
	if err != nil {
		return 0, err
	}
	off := f.offset.Load()
	n, err := b.submitAndWait(iouring.PrepRead(f.fd, p, off))
	if err != nil {
		return 0, b.opError("read", h, err)
	}
	f.offset.Add(int64(n))
	b.log.Debug("read completed", "handle", h, "offset", off, "bytes", n)
	return n, nil
}

// Write implements backend.Backend.
func (b *Backend) Write(h backend.Handle, p []byte) (int, error) {
	f, err := b.file("write", h)
	if err != nil {
		return 0, err
	}
	off := f.offset.Load()
	n, err := b.submitAndWait(iouring.PrepWrite(f.fd, p, off))
	if err != nil {
		return 0, b.opError("write", h, err)
	}
	f.offset.Add(int64(n))
	b.log.Debug("write completed", "handle", h, "offset", off, "bytes", n)
	return n, nil
}

// Seek implements backend.Backend. Only the tracked offset changes.
func (b *Backend) Seek(h backend.Handle, offset int64) error {
	f, err := b.file("seek", h)
	if err != nil {
		return err
	}
	if err := backend.CheckOffset(offset); err != nil {
		return b.opError("seek", h, err)
	}
	f.offset.Store(offset)
	b.log.Debug("seek completed", "handle", h, "offset", offset)
	return nil
}

// ReadAt implements backend.Backend.
func (b *Backend) ReadAt(h backend.Handle, p []byte, off int64) (int, error) {
	f, err := b.file("read_at", h)
	if err != nil {
		return 0, err
	}
	if err := backend.CheckOffset(off); err != nil {
		return 0, b.opError("read_at", h, err)
	}
	n, err := b.submitAndWait(iouring.PrepRead(f.fd, p, off))
	if err != nil {
		return 0, b.opError("read_at", h, err)
	}
	b.log.Debug("read_at completed", "handle", h, "offset", off, "bytes", n)
	return n, nil
}

// WriteAt implements backend.Backend.
func (b *Backend) WriteAt(h backend.Handle, p []byte, off int64) (int, error) {
	f, err := b.file("write_at", h)
	if err != nil {
		return 0, err
	}
	if err := backend.CheckOffset(off); err != nil {
		return 0, b.opError("write_at", h, err)
	}
	n, err := b.submitAndWait(iouring.PrepWrite(f.fd, p, off))
	if err != nil {
		return 0, b.opError("write_at", h, err)
	}
	b.log.Debug("write_at completed", "handle", h, "offset", off, "bytes", n)
	return n, nil
}

// Offset returns the logical offset tracked for h.
func (b *Backend) Offset(h backend.Handle) (int64, error) {
	f, err := b.file("offset", h)
	if err != nil {
		return 0, err
	}
	return f.offset.Load(), nil
}

// Shutdown closes descriptors still open and tears the ring down.
func (b *Backend) Shutdown() error {
	if b.down.Swap(true) {
		return backend.ErrShutdown
	}
	var errs []error
	for _, f := range b.files.Drain() {
		if err := unix.Close(f.fd); err != nil {
			errs = append(errs, err)
		}
	}
	if err := b.ring.Close(); err != nil {
		errs = append(errs, err)
	}
	b.log.Debug("backend destroyed")
	return errors.Join(errs...)
}
