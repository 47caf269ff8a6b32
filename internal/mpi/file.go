package mpi

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"github.com/hupe1980/ompfile/internal/fs"
)

// ErrFileClosed is returned by operations on a closed file.
var ErrFileClosed = errors.New("mpi: file closed")

// Mode is the access mode of a collective open.
type Mode int

const (
	ModeRDOnly Mode = 1 << iota
	ModeRDWR
	ModeWROnly
	ModeCreate
	ModeExcl
)

func (m Mode) flags() int {
	var flag int
	switch {
	case m&ModeRDWR != 0:
		flag = os.O_RDWR
	case m&ModeWROnly != 0:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}
	if m&ModeCreate != 0 {
		flag |= os.O_CREATE
	}
	if m&ModeExcl != 0 {
		flag |= os.O_EXCL
	}
	return flag
}

// Whence selects the reference point of SeekTo.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// Status describes a completed data access. Count is in bytes.
type Status struct {
	Count int
}

// File is a file opened collectively over a communicator.
type File struct {
	comm *Comm
	f    fs.File
	path string

	// individual file pointer
	posMu sync.Mutex
	pos   int64

	atomicMu sync.RWMutex
	atomic   bool
	lock     *flock.Flock

	closeMu sync.Mutex
	closed  bool
}

// OpenFile opens path collectively over c.
func (c *Comm) OpenFile(path string, mode Mode) (*File, error) {
	if err := c.Barrier(); err != nil {
		return nil, err
	}
	f, err := c.rt.fsys.OpenFile(path, mode.flags(), 0o644)
	if err != nil {
		return nil, err
	}
	return &File{comm: c, f: f, path: path}, nil
}

// Path returns the file name given to OpenFile.
func (f *File) Path() string { return f.path }

// Comm returns the communicator the file was opened over.
func (f *File) Comm() *Comm { return f.comm }

// SetAtomicity switches atomic mode. In atomic mode every access holds an
// exclusive lock, both in-process and as an advisory flock on the file.
func (f *File) SetAtomicity(on bool) error {
	if f.isClosed() {
		return ErrFileClosed
	}
	f.atomicMu.Lock()
	defer f.atomicMu.Unlock()
	if on && f.lock == nil {
		f.lock = flock.New(f.path)
	}
	f.atomic = on
	return nil
}

// Atomicity reports whether atomic mode is on.
func (f *File) Atomicity() bool {
	f.atomicMu.RLock()
	defer f.atomicMu.RUnlock()
	return f.atomic
}

// access runs fn under the atomic-mode locks when they are enabled.
func (f *File) access(fn func() (int, error)) (Status, error) {
	if f.isClosed() {
		return Status{}, ErrFileClosed
	}

	f.atomicMu.RLock()
	if !f.atomic {
		defer f.atomicMu.RUnlock()
		n, err := fn()
		return Status{Count: n}, err
	}
	f.atomicMu.RUnlock()

	f.atomicMu.Lock()
	defer f.atomicMu.Unlock()
	if f.atomic {
		if err := f.lock.Lock(); err != nil {
			return Status{}, err
		}
		defer func() { _ = f.lock.Unlock() }()
	}

	n, err := fn()
	return Status{Count: n}, err
}

// ReadAt reads len(p) bytes at the explicit offset off.
func (f *File) ReadAt(p []byte, off int64) (Status, error) {
	return f.access(func() (int, error) {
		n, err := f.f.ReadAt(p, off)
		if errors.Is(err, io.EOF) {
			err = nil
		}
		return n, err
	})
}

// WriteAt writes p at the explicit offset off.
func (f *File) WriteAt(p []byte, off int64) (Status, error) {
	return f.access(func() (int, error) {
		return f.f.WriteAt(p, off)
	})
}

// Read reads at the individual file pointer and advances it by Status.Count.
func (f *File) Read(p []byte) (Status, error) {
	f.posMu.Lock()
	defer f.posMu.Unlock()
	st, err := f.ReadAt(p, f.pos)
	f.pos += int64(st.Count)
	return st, err
}

// Write writes at the individual file pointer and advances it by Status.Count.
func (f *File) Write(p []byte) (Status, error) {
	f.posMu.Lock()
	defer f.posMu.Unlock()
	st, err := f.WriteAt(p, f.pos)
	f.pos += int64(st.Count)
	return st, err
}

// SeekTo updates the individual file pointer.
func (f *File) SeekTo(offset int64, whence Whence) error {
	if f.isClosed() {
		return ErrFileClosed
	}
	f.posMu.Lock()
	defer f.posMu.Unlock()

	var base int64
	switch whence {
	case SeekSet:
	case SeekCur:
		base = f.pos
	case SeekEnd:
		info, err := f.f.Stat()
		if err != nil {
			return err
		}
		base = info.Size()
	default:
		return os.ErrInvalid
	}
	if base+offset < 0 {
		return os.ErrInvalid
	}
	f.pos = base + offset
	return nil
}

// Position returns the individual file pointer.
func (f *File) Position() int64 {
	f.posMu.Lock()
	defer f.posMu.Unlock()
	return f.pos
}

// Sync flushes written data to storage.
func (f *File) Sync() error {
	if f.isClosed() {
		return ErrFileClosed
	}
	return f.f.Sync()
}

// Close closes the file collectively. If the native close fails the file
// stays open.
func (f *File) Close() error {
	f.closeMu.Lock()
	defer f.closeMu.Unlock()
	if f.closed {
		return ErrFileClosed
	}
	if err := f.f.Close(); err != nil {
		return err
	}
	f.closed = true
	return nil
}

func (f *File) isClosed() bool {
	f.closeMu.Lock()
	defer f.closeMu.Unlock()
	return f.closed
}
