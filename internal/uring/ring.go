// Package uring drives an io_uring instance synchronously.
//
// A Ring is a single submission/completion queue pair. SubmitAndWait is the
// only way work enters the ring: it queues exactly one prepared Request,
// submits it, blocks until one completion is available, marks it consumed and
// returns its result. Calls are serialised, so one request is in flight at a
// time and the completion always belongs to the request just submitted.
//
// The package supports Linux only; elsewhere New returns ErrNotSupported.
package uring

import "errors"

// DefaultEntries is the submission queue depth used when none is given.
const DefaultEntries = 64

var (
	// ErrNotSupported is returned when the kernel offers no io_uring.
	ErrNotSupported = errors.New("uring: io_uring not supported on this platform")

	// ErrClosed is returned by operations on a closed ring.
	ErrClosed = errors.New("uring: ring closed")

	// ErrQueueFull is returned when no submission queue entry is free.
	ErrQueueFull = errors.New("uring: submission queue full")

	// ErrBroken is returned once a request was left in flight or queued
	// without a completion. The ring can no longer match completions to
	// requests and must be closed.
	ErrBroken = errors.New("uring: ring broken")
)

type opcode uint8

const (
	opRead  opcode = 22 // IORING_OP_READ
	opWrite opcode = 23 // IORING_OP_WRITE
)

// Request is one prepared read or write at an explicit offset.
type Request struct {
	op  opcode
	fd  int
	buf []byte
	off int64
}

// PrepRead prepares a read of len(buf) bytes from fd at off.
func PrepRead(fd int, buf []byte, off int64) Request {
	return Request{op: opRead, fd: fd, buf: buf, off: off}
}

// PrepWrite prepares a write of buf to fd at off.
func PrepWrite(fd int, buf []byte, off int64) Request {
	return Request{op: opWrite, fd: fd, buf: buf, off: off}
}
