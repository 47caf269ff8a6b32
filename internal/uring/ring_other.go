//go:build !linux

package uring

// Ring is unavailable outside Linux.
type Ring struct{}

// New always fails with ErrNotSupported.
func New(entries uint32) (*Ring, error) {
	return nil, ErrNotSupported
}

func (r *Ring) Entries() uint32 { return 0 }

func (r *Ring) SubmitAndWait(req Request) (int32, error) {
	return 0, ErrNotSupported
}

func (r *Ring) Close() error { return nil }
