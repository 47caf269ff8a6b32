package mpi

import "sync/atomic"

// Comm is a communicator. Operations on distinct communicators never
// interfere with each other.
type Comm struct {
	rt    *Runtime
	id    int64
	world bool
	freed atomic.Bool
}

// ID returns the communicator's context id.
func (c *Comm) ID() int64 { return c.id }

// Rank returns the calling process' rank in c.
func (c *Comm) Rank() int { return 0 }

// Size returns the number of ranks in c.
func (c *Comm) Size() int { return 1 }

// Freed reports whether Free has been called.
func (c *Comm) Freed() bool { return c.freed.Load() }

// Dup duplicates c into a new communicator with its own context.
func (c *Comm) Dup() (*Comm, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	dup := &Comm{rt: c.rt, id: c.rt.nextComm.Add(1) - 1}
	c.rt.live.Add(1)
	return dup, nil
}

// Free releases a duplicated communicator.
func (c *Comm) Free() error {
	if c.world {
		return ErrInvalidComm
	}
	if !c.freed.CompareAndSwap(false, true) {
		return ErrCommFreed
	}
	c.rt.live.Add(-1)
	return nil
}

// Barrier blocks until every rank of c has entered it.
func (c *Comm) Barrier() error {
	return c.usable()
}

func (c *Comm) usable() error {
	if err := c.rt.usable(); err != nil {
		return err
	}
	if c.freed.Load() {
		return ErrCommFreed
	}
	return nil
}
