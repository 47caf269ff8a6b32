//go:build linux

package uring

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/hupe1980/ompfile/internal/conv"
)

const (
	enterGetEvents = 1 << 0 // IORING_ENTER_GETEVENTS

	offSQRing = 0          // IORING_OFF_SQ_RING
	offCQRing = 0x8000000  // IORING_OFF_CQ_RING
	offSQEs   = 0x10000000 // IORING_OFF_SQES
)

// sqe mirrors struct io_uring_sqe (64 bytes).
type sqe struct {
	opcode      uint8
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	len         uint32
	rwFlags     uint32
	userData    uint64
	bufIndex    uint16
	personality uint16
	spliceFdIn  int32
	pad         [2]uint64
}

// cqe mirrors struct io_uring_cqe (16 bytes).
type cqe struct {
	userData uint64
	res      int32
	flags    uint32
}

type sqOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	flags       uint32
	dropped     uint32
	array       uint32
	resv1       uint32
	userAddr    uint64
}

type cqOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	overflow    uint32
	cqes        uint32
	flags       uint32
	resv1       uint32
	userAddr    uint64
}

type params struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFd         uint32
	resv         [3]uint32
	sqOff        sqOffsets
	cqOff        cqOffsets
}

// Ring is an io_uring instance operated one request at a time.
type Ring struct {
	mu     sync.Mutex
	closed bool
	broken error

	fd      int
	entries uint32

	sqRing []byte
	cqRing []byte
	sqeMem []byte

	sqHead  *uint32
	sqTail  *uint32
	sqMask  uint32
	sqArray []uint32
	sqes    []sqe

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   []cqe

	seq uint64

	enterFn func(toSubmit, minComplete uint32, flags uintptr) (int, error)
}

// New sets up a ring with the given submission queue depth.
func New(entries uint32) (*Ring, error) {
	if entries == 0 {
		entries = DefaultEntries
	}

	var p params
	fd, _, errno := unix.Syscall(unix.SYS_IO_URING_SETUP, uintptr(entries), uintptr(unsafe.Pointer(&p)), 0)
	if errno != 0 {
		if errno == unix.ENOSYS {
			return nil, ErrNotSupported
		}
		return nil, fmt.Errorf("uring: io_uring_setup: %w", errno)
	}

	r := &Ring{fd: int(fd), entries: p.sqEntries}
	r.enterFn = r.enter
	if err := r.mmap(&p); err != nil {
		r.unmap()
		_ = unix.Close(r.fd)
		return nil, err
	}
	return r, nil
}

func (r *Ring) mmap(p *params) error {
	var err error

	sqSize := int(p.sqOff.array + p.sqEntries*4)
	r.sqRing, err = unix.Mmap(r.fd, offSQRing, sqSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("uring: mmap sq ring: %w", err)
	}

	sqeSize := int(p.sqEntries) * int(unsafe.Sizeof(sqe{}))
	r.sqeMem, err = unix.Mmap(r.fd, offSQEs, sqeSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("uring: mmap sqes: %w", err)
	}

	cqSize := int(p.cqOff.cqes + p.cqEntries*uint32(unsafe.Sizeof(cqe{})))
	r.cqRing, err = unix.Mmap(r.fd, offCQRing, cqSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("uring: mmap cq ring: %w", err)
	}

	r.sqHead = (*uint32)(unsafe.Pointer(&r.sqRing[p.sqOff.head]))
	r.sqTail = (*uint32)(unsafe.Pointer(&r.sqRing[p.sqOff.tail]))
	r.sqMask = *(*uint32)(unsafe.Pointer(&r.sqRing[p.sqOff.ringMask]))
	r.sqArray = unsafe.Slice((*uint32)(unsafe.Pointer(&r.sqRing[p.sqOff.array])), p.sqEntries)
	r.sqes = unsafe.Slice((*sqe)(unsafe.Pointer(&r.sqeMem[0])), p.sqEntries)

	r.cqHead = (*uint32)(unsafe.Pointer(&r.cqRing[p.cqOff.head]))
	r.cqTail = (*uint32)(unsafe.Pointer(&r.cqRing[p.cqOff.tail]))
	r.cqMask = *(*uint32)(unsafe.Pointer(&r.cqRing[p.cqOff.ringMask]))
	r.cqes = unsafe.Slice((*cqe)(unsafe.Pointer(&r.cqRing[p.cqOff.cqes])), p.cqEntries)

	return nil
}

func (r *Ring) unmap() {
	for _, m := range [][]byte{r.cqRing, r.sqeMem, r.sqRing} {
		if m != nil {
			_ = unix.Munmap(m)
		}
	}
	r.cqRing, r.sqeMem, r.sqRing = nil, nil, nil
}

// Entries returns the submission queue depth granted by the kernel.
func (r *Ring) Entries() uint32 { return r.entries }

// SubmitAndWait submits req, blocks for its completion and returns the
// completion result: the byte count on success, -errno on failure. The error
// is non-nil only when the ring itself could not be driven.
//
// A request the kernel may still own when SubmitAndWait returns an error
// breaks the ring: every later call fails with ErrBroken.
func (r *Ring) SubmitAndWait(req Request) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	if r.broken != nil {
		return 0, fmt.Errorf("%w: %v", ErrBroken, r.broken)
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()
	if len(req.buf) > 0 {
		pinner.Pin(&req.buf[0])
	}

	tail := atomic.LoadUint32(r.sqTail)
	if err := r.prep(req); err != nil {
		return 0, err
	}
	if err := r.submit(); err != nil {
		if atomic.LoadUint32(r.sqHead) == tail {
			// Not consumed: withdraw the entry so its buffer is never seen.
			atomic.StoreUint32(r.sqTail, tail)
		} else {
			r.broken = err
		}
		return 0, err
	}
	c, err := r.waitCQE()
	if err != nil {
		r.broken = err
		return 0, err
	}
	res := c.res
	r.seen()

	runtime.KeepAlive(req.buf)
	return res, nil
}

// prep fills the next free SQE and publishes it in the SQ array.
func (r *Ring) prep(req Request) error {
	n, err := conv.IntToUint32(len(req.buf))
	if err != nil {
		return err
	}

	head := atomic.LoadUint32(r.sqHead)
	tail := *r.sqTail
	if tail-head >= uint32(len(r.sqes)) {
		return ErrQueueFull
	}

	r.seq++
	idx := tail & r.sqMask
	r.sqes[idx] = sqe{
		opcode:   uint8(req.op),
		fd:       int32(req.fd),
		off:      uint64(req.off),
		addr:     uint64(uintptr(unsafe.Pointer(unsafe.SliceData(req.buf)))),
		len:      n,
		userData: r.seq,
	}
	r.sqArray[idx] = idx
	atomic.StoreUint32(r.sqTail, tail+1)
	return nil
}

func (r *Ring) submit() error {
	for {
		pending := atomic.LoadUint32(r.sqTail) - atomic.LoadUint32(r.sqHead)
		if pending == 0 {
			return nil
		}
		if _, err := r.enterFn(pending, 0, 0); err != nil {
			return fmt.Errorf("uring: submit: %w", err)
		}
	}
}

// waitCQE blocks until the completion of the request numbered r.seq is
// available. Completions carrying any other number are dropped.
func (r *Ring) waitCQE() (*cqe, error) {
	for {
		head := atomic.LoadUint32(r.cqHead)
		if head != atomic.LoadUint32(r.cqTail) {
			c := &r.cqes[head&r.cqMask]
			if c.userData == r.seq {
				return c, nil
			}
			r.seen()
			continue
		}
		if _, err := r.enterFn(0, 1, enterGetEvents); err != nil {
			return nil, fmt.Errorf("uring: wait cqe: %w", err)
		}
	}
}

// seen marks the head completion consumed.
func (r *Ring) seen() {
	atomic.StoreUint32(r.cqHead, atomic.LoadUint32(r.cqHead)+1)
}

func (r *Ring) enter(toSubmit, minComplete uint32, flags uintptr) (int, error) {
	for {
		n, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER,
			uintptr(r.fd), uintptr(toSubmit), uintptr(minComplete), flags, 0, 0)
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			return 0, errno
		}
		return int(n), nil
	}
}

// Close unmaps the queues and closes the ring descriptor.
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.unmap()
	return unix.Close(r.fd)
}
