// Package mpiio implements the backend on collective parallel file I/O.
//
// At construction the backend initialises the parallel runtime with full
// thread support unless the application already did, and remembers which of
// the two happened so Shutdown never finalizes a runtime it does not own. It
// then duplicates the world communicator into a private one used only for
// file I/O, keeping its collective file operations apart from any other
// collective traffic in the process.
package mpiio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/internal/handle"
	"github.com/hupe1980/ompfile/internal/mpi"
)

var _ backend.Backend = (*Backend)(nil)

// Options configures the parallel-I/O backend.
type Options struct {
	Logger *slog.Logger

	// Runtime is the parallel runtime to use. Defaults to mpi.Default().
	Runtime *mpi.Runtime

	// Atomicity opens every file in atomic mode.
	Atomicity bool
}

// Backend maps handles to collectively opened files.
type Backend struct {
	log       *slog.Logger
	rt        *mpi.Runtime
	ownsRT    bool
	comm      *mpi.Comm
	atomicity bool
	files     *handle.Table[backend.Handle, *mpi.File]

	down atomic.Bool
}

// New initialises the runtime if needed and duplicates the world communicator.
func New(optFns ...func(*Options)) (*Backend, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Runtime == nil {
		opts.Runtime = mpi.Default()
	}

	b := &Backend{
		log:       opts.Logger.With("backend", backend.MPI.String()),
		rt:        opts.Runtime,
		atomicity: opts.Atomicity,
		files:     handle.NewTable[backend.Handle, *mpi.File](),
	}

	if !b.rt.Initialized() {
		provided, err := b.rt.InitThread(mpi.ThreadMultiple)
		if err != nil {
			return nil, fmt.Errorf("mpiio: init runtime: %w", err)
		}
		b.ownsRT = true
		b.log.Debug("runtime initialized", "provided", provided.String())
	} else {
		b.log.Debug("runtime already initialized by application")
	}

	world, err := b.rt.CommWorld()
	if err == nil {
		b.comm, err = world.Dup()
	}
	if err != nil {
		if b.ownsRT {
			_ = b.rt.Finalize()
		}
		return nil, fmt.Errorf("mpiio: duplicate world communicator: %w", err)
	}
	b.log.Debug("backend initialized", "comm", b.comm.ID())

	return b, nil
}

// Type implements backend.Backend.
func (b *Backend) Type() backend.Type { return backend.MPI }

// Comm returns the private file communicator.
func (b *Backend) Comm() *mpi.Comm { return b.comm }

// OwnsRuntime reports whether New initialised the runtime.
func (b *Backend) OwnsRuntime() bool { return b.ownsRT }

func (b *Backend) opError(op string, h backend.Handle, err error) error {
	b.log.Debug(op+" failed", "handle", h, "error", err)
	return &backend.OpError{Op: op, Backend: backend.MPI, Handle: h, Err: err}
}

func (b *Backend) file(op string, h backend.Handle) (*mpi.File, error) {
	if b.down.Load() {
		return nil, b.opError(op, h, backend.ErrShutdown)
	}
	f, ok := b.files.Get(h)
	if !ok {
		return nil, b.opError(op, h, backend.ErrInvalidHandle)
	}
	return f, nil
}

// Open implements backend.Backend.
func (b *Backend) Open(path string) (backend.Handle, error) {
	if b.down.Load() {
		return backend.InvalidHandle, b.opError("open", backend.InvalidHandle, backend.ErrShutdown)
	}
	f, err := b.comm.OpenFile(path, mpi.ModeRDWR)
	if err == nil && b.atomicity {
		if err = f.SetAtomicity(true); err != nil {
			_ = f.Close()
		}
	}
	if err != nil {
		b.log.Debug("open failed", "path", path, "error", err)
		return backend.InvalidHandle, &backend.OpError{Op: "open", Backend: backend.MPI, Handle: backend.InvalidHandle, Path: path, Err: err}
	}

	h := b.files.Insert(f)
	b.log.Debug("open completed", "path", path, "handle", h)
	return h, nil
}

// Close implements backend.Backend.
func (b *Backend) Close(h backend.Handle) error {
	f, err := b.file("close", h)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
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
	st, err := f.Read(p)
	if err != nil {
		return 0, b.opError("read", h, err)
	}
	b.log.Debug("read completed", "handle", h, "bytes", st.Count)
	return st.Count, nil
}

// Write implements backend.Backend.
func (b *Backend) Write(h backend.Handle, p []byte) (int, error) {
	f, err := b.file("write", h)
	if err != nil {
		return 0, err
	}
	st, err := f.Write(p)
	if err != nil {
		return 0, b.opError("write", h, err)
	}
	b.log.Debug("write completed", "handle", h, "bytes", st.Count)
	return st.Count, nil
}

// Seek implements backend.Backend.
func (b *Backend) Seek(h backend.Handle, offset int64) error {
	f, err := b.file("seek", h)
	if err != nil {
		return err
	}
	if err := backend.CheckOffset(offset); err != nil {
		return b.opError("seek", h, err)
	}
	if err := f.SeekTo(offset, mpi.SeekSet); err != nil {
		return b.opError("seek", h, err)
	}
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
	st, err := f.ReadAt(p, off)
	if err != nil {
		return 0, b.opError("read_at", h, err)
	}
	b.log.Debug("read_at completed", "handle", h, "offset", off, "bytes", st.Count)
	return st.Count, nil
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
	st, err := f.WriteAt(p, off)
	if err != nil {
		return 0, b.opError("write_at", h, err)
	}
	b.log.Debug("write_at completed", "handle", h, "offset", off, "bytes", st.Count)
	return st.Count, nil
}

// Shutdown closes files still open, frees the private communicator and
// finalizes the runtime if New initialised it.
func (b *Backend) Shutdown() error {
	if b.down.Swap(true) {
		return backend.ErrShutdown
	}
	var errs []error
	for _, f := range b.files.Drain() {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := b.comm.Free(); err != nil {
		errs = append(errs, err)
	} else {
		b.log.Debug("file communicator freed")
	}
	if b.ownsRT {
		if err := b.rt.Finalize(); err != nil {
			errs = append(errs, err)
		}
	}
	b.log.Debug("backend destroyed")
	return errors.Join(errs...)
}
