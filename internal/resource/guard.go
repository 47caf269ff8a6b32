package resource

import (
	"sync/atomic"
	"time"
)

// Guard is one admitted token. Release returns it to the pool exactly once,
// however often it is called, so it is safe to defer on every exit path.
type Guard struct {
	c        *Controller
	waited   time.Duration
	released atomic.Bool
}

// Release returns the token.
func (g *Guard) Release() {
	if g == nil {
		return
	}
	if g.released.CompareAndSwap(false, true) {
		g.c.release()
	}
}

// Waited reports how long Acquire spent backing off before admission.
func (g *Guard) Waited() time.Duration {
	if g == nil {
		return 0
	}
	return g.waited
}
