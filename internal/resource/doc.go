// Package resource implements bounded admission of concurrent I/O operations.
//
// The Controller owns two independent limits:
//
//   - Admission: a pool of tokens, one per in-flight operation
//   - IO: an optional token-bucket cap on bytes per second
//
// # Admission
//
// The pool starts full. Acquire takes a token with a compare-and-swap loop;
// when the pool is empty the caller sleeps 1ms, 2ms, 4ms, ... capped at 100ms
// and tries again until it succeeds. This is a spin-with-backoff design, not a
// wait queue: waiters are not ordered and a waiter can starve under sustained
// contention.
//
//	rc := resource.NewController(resource.Config{Tokens: 4})
//
//	g := rc.Acquire()
//	defer g.Release()
//
// A Guard releases its token at most once, so deferring Release covers every
// exit path, including panics in the guarded call.
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	if err := rc.AcquireIO(ctx, 4096); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use. The pool itself is
// protected purely by atomic operations.
package resource
