package ompfile

import (
	"errors"
	"sync"
)

// The package-level functions below dispatch through a process-wide default
// Context. It is created from the environment on first use, replaced by Init
// and destroyed by Finalize. Using the package-level functions after Finalize
// without calling Init again panics with ErrFinalized; the default is never
// recreated implicitly.
var (
	defaultMu        sync.Mutex
	defaultCtx       *Context
	defaultFinalized bool

	// fallbackLogger reports rejected calls made while no default Context
	// exists.
	fallbackLogger = NewLogger(nil)
)

// rejectAsync reports an asynchronous request on the default Context's
// logger, or on fallbackLogger when there is none, and returns
// ErrAsyncNotSupported. It never creates the default Context.
func rejectAsync(op Op) error {
	defaultMu.Lock()
	logger := fallbackLogger
	if defaultCtx != nil {
		logger = defaultCtx.logger
	}
	defaultMu.Unlock()

	logger.Warn("asynchronous I/O not supported", "op", op.String())
	return ErrAsyncNotSupported
}

func defaultContext() (*Context, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultCtx != nil {
		return defaultCtx, nil
	}
	if defaultFinalized {
		panic(ErrFinalized)
	}

	// A failed construction is not cached; the next call tries again.
	c, err := New(FromEnv())
	if err != nil {
		return nil, err
	}
	defaultCtx = c
	return c, nil
}

// Init closes any existing default Context, then creates a new one from the
// environment followed by optFns. It also re-arms the package after Finalize.
//
// The MPI runtime cannot be initialised twice, so after a default Context
// that owned the process-wide runtime is gone, Init with the MPI backend
// needs WithMPIRuntime.
func Init(optFns ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	var closeErr error
	if defaultCtx != nil {
		closeErr = defaultCtx.Close()
		defaultCtx = nil
	}

	c, err := New(append([]Option{FromEnv()}, optFns...)...)
	if err != nil {
		return errors.Join(closeErr, err)
	}
	defaultCtx = c
	defaultFinalized = false
	return closeErr
}

// Finalize destroys the default Context. Afterwards the package-level
// functions panic until Init is called.
func Finalize() error {
	defaultMu.Lock()
	c := defaultCtx
	defaultCtx = nil
	defaultFinalized = true
	defaultMu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}

// Open opens path on the default Context.
func Open(path string) (Handle, error) {
	c, err := defaultContext()
	if err != nil {
		return InvalidHandle, err
	}
	return c.Open(path)
}

// CloseFile closes h on the default Context.
func CloseFile(h Handle) error {
	c, err := defaultContext()
	if err != nil {
		return err
	}
	return c.CloseFile(h)
}

// Write writes p at the current position of h. async must be false.
func Write(h Handle, p []byte, async bool) (int, error) {
	if async {
		return 0, rejectAsync(OpWrite)
	}
	c, err := defaultContext()
	if err != nil {
		return 0, err
	}
	return c.Write(h, p)
}

// Read reads into p at the current position of h. async must be false.
func Read(h Handle, p []byte, async bool) (int, error) {
	if async {
		return 0, rejectAsync(OpRead)
	}
	c, err := defaultContext()
	if err != nil {
		return 0, err
	}
	return c.Read(h, p)
}

// WriteAt writes p at off without moving the current position of h.
// async must be false.
func WriteAt(h Handle, off int64, p []byte, async bool) (int, error) {
	if async {
		return 0, rejectAsync(OpWriteAt)
	}
	c, err := defaultContext()
	if err != nil {
		return 0, err
	}
	return c.WriteAt(h, p, off)
}

// ReadAt reads into p at off without moving the current position of h.
// async must be false.
func ReadAt(h Handle, off int64, p []byte, async bool) (int, error) {
	if async {
		return 0, rejectAsync(OpReadAt)
	}
	c, err := defaultContext()
	if err != nil {
		return 0, err
	}
	return c.ReadAt(h, p, off)
}

// Seek sets the current position of h to off.
func Seek(h Handle, off int64) error {
	c, err := defaultContext()
	if err != nil {
		return err
	}
	return c.Seek(h, off)
}
