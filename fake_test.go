package ompfile

import (
	"sync"
	"sync/atomic"

	"github.com/hupe1980/ompfile/backend"
)

// withBackendFactory replaces backend construction.
func withBackendFactory(fn func(*Logger) (backend.Backend, error)) Option {
	return func(o *options) {
		o.newBackend = fn
	}
}

func withFake(f *fakeBackend) Option {
	return withBackendFactory(func(*Logger) (backend.Backend, error) { return f, nil })
}

// fakeBackend records concurrency and lets tests hold calls open.
type fakeBackend struct {
	// hold, when set, blocks every Write until it is closed.
	hold chan struct{}
	// started receives one value per Write that reached the backend.
	started chan backend.Handle

	err     error
	panicOn string

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32

	mu       sync.Mutex
	shutdown bool
}

var _ backend.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) enter(op string) func() {
	f.calls.Add(1)
	n := f.active.Add(1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	if op == f.panicOn {
		f.active.Add(-1)
		panic("fake " + op)
	}
	return func() { f.active.Add(-1) }
}

func (f *fakeBackend) Type() backend.Type { return backend.POSIX }

func (f *fakeBackend) Open(string) (backend.Handle, error) {
	defer f.enter("open")()
	if f.err != nil {
		return backend.InvalidHandle, f.err
	}
	return 0, nil
}

func (f *fakeBackend) Close(backend.Handle) error {
	defer f.enter("close")()
	return f.err
}

func (f *fakeBackend) Read(_ backend.Handle, p []byte) (int, error) {
	defer f.enter("read")()
	if f.err != nil {
		return 0, f.err
	}
	return len(p), nil
}

func (f *fakeBackend) Write(h backend.Handle, p []byte) (int, error) {
	defer f.enter("write")()
	if f.started != nil {
		f.started <- h
	}
	if f.hold != nil {
		<-f.hold
	}
	if f.err != nil {
		return 0, f.err
	}
	return len(p), nil
}

func (f *fakeBackend) Seek(backend.Handle, int64) error {
	defer f.enter("seek")()
	return f.err
}

func (f *fakeBackend) ReadAt(_ backend.Handle, p []byte, _ int64) (int, error) {
	defer f.enter("read_at")()
	return len(p), f.err
}

func (f *fakeBackend) WriteAt(_ backend.Handle, p []byte, _ int64) (int, error) {
	defer f.enter("write_at")()
	return len(p), f.err
}

func (f *fakeBackend) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown = true
	return nil
}

func (f *fakeBackend) isShutdown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdown
}
