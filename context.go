package ompfile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/backend/mpiio"
	"github.com/hupe1980/ompfile/backend/posix"
	"github.com/hupe1980/ompfile/backend/uring"
	"github.com/hupe1980/ompfile/internal/resource"
)

// Handle identifies an open file within one Context.
type Handle = backend.Handle

// InvalidHandle is returned by Open on failure.
const InvalidHandle = backend.InvalidHandle

// Context owns one backend, selected at construction, and the admission
// token pool guarding every call into it.
//
// A Context is safe for concurrent use. Concurrent calls on the same handle
// are not serialised beyond what the backend guarantees.
type Context struct {
	typ     backend.Type
	backend backend.Backend // nil when typ has no implementation
	tokens  *resource.Controller
	logger  *Logger
	metrics MetricsCollector

	// mu is held shared by every dispatched call and exclusively by Close.
	mu     sync.RWMutex
	closed bool
}

// New creates a Context. The backend is chosen once and never changes.
//
// Selecting HDF5 is not an error: the Context is created without an active
// backend and every operation returns ErrNoBackend.
func New(optFns ...Option) (*Context, error) {
	o := applyOptions(optFns)

	for _, w := range o.warnings {
		o.logger.Warn(w)
	}

	logger := o.logger.WithBackend(o.backend)

	c := &Context{
		typ: o.backend,
		tokens: resource.NewController(resource.Config{
			Tokens:             int64(o.ioTokens),
			IOLimitBytesPerSec: o.ioLimit,
		}),
		logger:  logger,
		metrics: o.metricsCollector,
	}

	be, err := newBackend(&o, o.logger)
	if err != nil {
		return nil, fmt.Errorf("ompfile: create %s backend: %w", o.backend, err)
	}
	c.backend = be
	if be == nil {
		logger.Warn("backend has no implementation, all operations will fail")
	}

	logger.Info("backend selected", "io_tokens", c.tokens.Capacity())
	return c, nil
}

// newBackend builds the selected backend. Backends tag their own records
// and log every operation, so they get the untagged logger.
func newBackend(o *options, logger *Logger) (backend.Backend, error) {
	if o.newBackend != nil {
		return o.newBackend(logger)
	}

	switch o.backend {
	case backend.POSIX:
		return posix.New(func(po *posix.Options) {
			po.Logger = logger.Logger
		}), nil
	case backend.IOURing:
		return uring.New(func(uo *uring.Options) {
			uo.Logger = logger.Logger
			if o.queueDepth > 0 {
				uo.QueueDepth = o.queueDepth
			}
		})
	case backend.MPI:
		return mpiio.New(func(mo *mpiio.Options) {
			mo.Logger = logger.Logger
			mo.Runtime = o.mpiRuntime
			mo.Atomicity = o.atomicity
		})
	default:
		return nil, nil
	}
}

// Backend returns the selected backend type.
func (c *Context) Backend() backend.Type { return c.typ }

// Tokens returns the size of the admission token pool.
func (c *Context) Tokens() int { return int(c.tokens.Capacity()) }

// AvailableTokens returns the number of tokens not currently held.
func (c *Context) AvailableTokens() int { return int(c.tokens.Available()) }

// enter takes the shared lock and checks the Context is usable. On success
// the caller must call c.mu.RUnlock.
func (c *Context) enter() error {
	c.mu.RLock()
	switch {
	case c.closed:
		c.mu.RUnlock()
		return ErrClosed
	case c.backend == nil:
		c.mu.RUnlock()
		return ErrNoBackend
	}
	return nil
}

// admit acquires one token, blocking with backoff until one is free.
func (c *Context) admit() *resource.Guard {
	g := c.tokens.Acquire()
	c.metrics.RecordAdmission(g.Waited())
	return g
}

// throttle waits for n bytes of I/O budget when a throughput cap is set.
func (c *Context) throttle(n int) {
	// Cancellation is not offered, so the wait cannot fail.
	_ = c.tokens.AcquireIO(context.Background(), n)
}

// Open opens an existing file for reading and writing.
func (c *Context) Open(path string) (Handle, error) {
	if err := c.enter(); err != nil {
		return InvalidHandle, err
	}
	defer c.mu.RUnlock()

	g := c.admit()
	defer g.Release()

	start := time.Now()
	h, err := c.backend.Open(path)
	c.metrics.RecordOp(OpOpen, 0, time.Since(start), err)
	return h, err
}

// CloseFile closes h. On a native close failure h stays open.
func (c *Context) CloseFile(h Handle) error {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.mu.RUnlock()

	g := c.admit()
	defer g.Release()

	start := time.Now()
	err := c.backend.Close(h)
	c.metrics.RecordOp(OpClose, 0, time.Since(start), err)
	return err
}

// Read reads into p at the handle's current position and advances it.
// A short count is not an error.
func (c *Context) Read(h Handle, p []byte) (int, error) {
	return c.transfer(OpRead, len(p), func() (int, error) {
		return c.backend.Read(h, p)
	})
}

// Write writes p at the handle's current position and advances it.
// A short count is not an error.
func (c *Context) Write(h Handle, p []byte) (int, error) {
	return c.transfer(OpWrite, len(p), func() (int, error) {
		return c.backend.Write(h, p)
	})
}

// ReadAt reads into p at off without moving the current position.
func (c *Context) ReadAt(h Handle, p []byte, off int64) (int, error) {
	return c.transfer(OpReadAt, len(p), func() (int, error) {
		return c.backend.ReadAt(h, p, off)
	})
}

// WriteAt writes p at off without moving the current position.
func (c *Context) WriteAt(h Handle, p []byte, off int64) (int, error) {
	return c.transfer(OpWriteAt, len(p), func() (int, error) {
		return c.backend.WriteAt(h, p, off)
	})
}

func (c *Context) transfer(op Op, size int, fn func() (int, error)) (int, error) {
	if err := c.enter(); err != nil {
		return 0, err
	}
	defer c.mu.RUnlock()

	g := c.admit()
	defer g.Release()

	c.throttle(size)

	start := time.Now()
	n, err := fn()
	c.metrics.RecordOp(op, n, time.Since(start), err)
	return n, err
}

// Seek sets the handle's current position to the absolute offset off.
func (c *Context) Seek(h Handle, off int64) error {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.mu.RUnlock()

	g := c.admit()
	defer g.Release()

	start := time.Now()
	err := c.backend.Seek(h, off)
	c.metrics.RecordOp(OpSeek, 0, time.Since(start), err)
	return err
}
