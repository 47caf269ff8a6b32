package resource

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTokens is the admission pool size used when none is configured.
	DefaultTokens = 4

	// DefaultMinBackoff is the first sleep of a waiting acquirer.
	DefaultMinBackoff = time.Millisecond

	// DefaultMaxBackoff caps the doubling sleep of a waiting acquirer.
	DefaultMaxBackoff = 100 * time.Millisecond
)

// Config holds resource limits.
type Config struct {
	// Tokens is the number of I/O operations admitted concurrently.
	// If <= 0, DefaultTokens is used.
	Tokens int64

	// IOLimitBytesPerSec is the maximum read/write throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64

	// MinBackoff and MaxBackoff bound the exponential sleep while the pool is
	// empty. Zero values select the defaults.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Controller manages the admission token pool and the optional IO limiter.
type Controller struct {
	cfg Config

	// Admission
	tokens atomic.Int64

	// IO
	ioLimiter *rate.Limiter
	ioBurst   int

	sleep func(time.Duration)
}

// NewController creates a new resource controller with a full token pool.
func NewController(cfg Config) *Controller {
	if cfg.Tokens <= 0 {
		cfg.Tokens = DefaultTokens
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = DefaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = max(DefaultMaxBackoff, cfg.MinBackoff)
	}

	c := &Controller{
		cfg:   cfg,
		sleep: time.Sleep,
	}
	c.tokens.Store(cfg.Tokens)

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioBurst = int(min(cfg.IOLimitBytesPerSec, math.MaxInt32))
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), c.ioBurst)
	}

	return c
}

// Capacity returns the configured pool size.
func (c *Controller) Capacity() int64 {
	return c.cfg.Tokens
}

// Available returns the number of tokens currently free.
func (c *Controller) Available() int64 {
	return c.tokens.Load()
}

// tryTake decrements the pool if it is positive. A lost CAS race while tokens
// remain is retried without sleeping.
func (c *Controller) tryTake() bool {
	for {
		cur := c.tokens.Load()
		if cur <= 0 {
			return false
		}
		if c.tokens.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Acquire blocks until a token is admitted and returns its guard.
//
// While the pool is empty the caller sleeps MinBackoff, doubling after every
// failed attempt up to MaxBackoff, and retries forever. Waiters are not
// queued: there is no fairness between them.
func (c *Controller) Acquire() *Guard {
	if c.tryTake() {
		return &Guard{c: c}
	}
	start := time.Now()
	delay := c.cfg.MinBackoff
	for {
		c.sleep(delay)
		if c.tryTake() {
			break
		}
		delay = min(delay*2, c.cfg.MaxBackoff)
	}
	return &Guard{c: c, waited: time.Since(start)}
}

// TryAcquire admits a token only if one is free right now.
func (c *Controller) TryAcquire() (*Guard, bool) {
	if !c.tryTake() {
		return nil, false
	}
	return &Guard{c: c}, true
}

func (c *Controller) release() {
	if c.tokens.Add(1) > c.cfg.Tokens {
		panic("resource: token released more often than acquired")
	}
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the limiter burst are admitted in burst-sized chunks.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	for bytes > 0 {
		n := min(bytes, c.ioBurst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
// Returns true if tokens were acquired, false otherwise.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	if bytes > c.ioBurst {
		return false
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}
