package ompfile

// Close destroys the Context. It waits for calls in flight, then shuts the
// backend down: files still open are closed, the MPI communicator is freed
// and the io_uring queue is torn down. Later calls return ErrClosed.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true

	if c.backend == nil {
		return nil
	}
	err := c.backend.Shutdown()
	if err != nil {
		c.logger.Warn("backend shutdown failed", "error", err)
	}
	c.logger.Debug("backend destroyed")
	return err
}
