package mpi

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/ompfile/internal/fs"
)

var (
	// ErrNotInitialized is returned when the runtime has not been initialised.
	ErrNotInitialized = errors.New("mpi: runtime not initialized")

	// ErrFinalized is returned by every call after Finalize.
	ErrFinalized = errors.New("mpi: runtime finalized")

	// ErrAlreadyInitialized is returned by a second InitThread.
	ErrAlreadyInitialized = errors.New("mpi: runtime already initialized")

	// ErrCommFreed is returned when a freed communicator is used.
	ErrCommFreed = errors.New("mpi: communicator freed")

	// ErrInvalidComm is returned when freeing the world communicator.
	ErrInvalidComm = errors.New("mpi: invalid communicator")
)

// ThreadLevel is the thread support requested from or provided by InitThread.
type ThreadLevel int

const (
	ThreadSingle ThreadLevel = iota
	ThreadFunneled
	ThreadSerialized
	ThreadMultiple
)

func (l ThreadLevel) String() string {
	switch l {
	case ThreadSingle:
		return "single"
	case ThreadFunneled:
		return "funneled"
	case ThreadSerialized:
		return "serialized"
	case ThreadMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Runtime is one parallel runtime instance.
type Runtime struct {
	fsys fs.FileSystem

	mu          sync.Mutex
	initialized bool
	finalized   bool
	provided    ThreadLevel
	world       *Comm

	nextComm atomic.Int64
	live     atomic.Int64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFileSystem sets the file system files are opened through.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(r *Runtime) {
		if fsys != nil {
			r.fsys = fsys
		}
	}
}

// NewRuntime creates an uninitialised runtime.
func NewRuntime(optFns ...Option) *Runtime {
	r := &Runtime{fsys: fs.Default}
	for _, fn := range optFns {
		if fn != nil {
			fn(r)
		}
	}
	return r
}

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)

// Default returns the process-wide runtime.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRuntime = NewRuntime()
	})
	return defaultRuntime
}

// Initialized reports whether InitThread has been called.
func (r *Runtime) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Finalized reports whether Finalize has been called.
func (r *Runtime) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

// InitThread initialises the runtime and returns the provided thread level.
// The in-process runtime always provides the level requested.
func (r *Runtime) InitThread(required ThreadLevel) (ThreadLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.finalized:
		return ThreadSingle, ErrFinalized
	case r.initialized:
		return r.provided, ErrAlreadyInitialized
	}
	r.initialized = true
	r.provided = required
	r.world = &Comm{rt: r, id: r.nextComm.Add(1) - 1, world: true}
	return r.provided, nil
}

// Provided returns the thread level granted by InitThread.
func (r *Runtime) Provided() ThreadLevel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.provided
}

// Finalize shuts the runtime down. It cannot be initialised again.
func (r *Runtime) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.finalized:
		return ErrFinalized
	case !r.initialized:
		return ErrNotInitialized
	}
	r.finalized = true
	r.world.freed.Store(true)
	return nil
}

// CommWorld returns the communicator spanning every rank.
func (r *Runtime) CommWorld() (*Comm, error) {
	if err := r.usable(); err != nil {
		return nil, err
	}
	return r.world, nil
}

// LiveComms returns the number of duplicated communicators not yet freed.
func (r *Runtime) LiveComms() int {
	return int(r.live.Load())
}

func (r *Runtime) usable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.finalized:
		return ErrFinalized
	case !r.initialized:
		return ErrNotInitialized
	}
	return nil
}
