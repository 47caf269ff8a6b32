package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ompfile/backend"
)

// RunBackendSuite runs the behaviour every backend.Backend must share.
// newBackend is called once per subtest; the suite shuts the backend down.
func RunBackendSuite(t *testing.T, newBackend func(t *testing.T) backend.Backend) {
	t.Helper()

	setup := func(t *testing.T) backend.Backend {
		t.Helper()
		b := newBackend(t)
		t.Cleanup(func() { _ = b.Shutdown() })
		return b
	}

	t.Run("DistinctHandles", func(t *testing.T) {
		b := setup(t)
		path := TempFile(t, "a.bin", nil)

		h1, err := b.Open(path)
		require.NoError(t, err)
		h2, err := b.Open(path)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)

		require.NoError(t, b.Close(h1))
		h3, err := b.Open(path)
		require.NoError(t, err)
		assert.NotEqual(t, h1, h3, "handles are never reused")
	})

	t.Run("InvalidHandleAfterClose", func(t *testing.T) {
		b := setup(t)
		h, err := b.Open(TempFile(t, "a.bin", nil))
		require.NoError(t, err)
		require.NoError(t, b.Close(h))

		assert.ErrorIs(t, b.Close(h), backend.ErrInvalidHandle)
		_, err = b.Read(h, make([]byte, 1))
		assert.ErrorIs(t, err, backend.ErrInvalidHandle)
		_, err = b.Write(h, []byte("x"))
		assert.ErrorIs(t, err, backend.ErrInvalidHandle)
		_, err = b.ReadAt(h, make([]byte, 1), 0)
		assert.ErrorIs(t, err, backend.ErrInvalidHandle)
		_, err = b.WriteAt(h, []byte("x"), 0)
		assert.ErrorIs(t, err, backend.ErrInvalidHandle)
		assert.ErrorIs(t, b.Seek(h, 0), backend.ErrInvalidHandle)
	})

	t.Run("NeverIssuedHandle", func(t *testing.T) {
		b := setup(t)
		_, err := b.Read(backend.Handle(4711), make([]byte, 1))
		assert.ErrorIs(t, err, backend.ErrInvalidHandle)
		assert.ErrorIs(t, b.Close(backend.InvalidHandle), backend.ErrInvalidHandle)
	})

	t.Run("SequentialRoundTrip", func(t *testing.T) {
		b := setup(t)
		path := TempFile(t, "a.bin", nil)
		h, err := b.Open(path)
		require.NoError(t, err)

		payload := NewRNG(4711).Bytes(8192)
		n, err := b.Write(h, payload[:4096])
		require.NoError(t, err)
		assert.Equal(t, 4096, n)
		n, err = b.Write(h, payload[4096:])
		require.NoError(t, err)
		assert.Equal(t, 4096, n)

		require.NoError(t, b.Seek(h, 0))
		got := make([]byte, len(payload))
		n, err = b.Read(h, got)
		require.NoError(t, err)
		assert.Equal(t, len(payload), n)
		assert.Equal(t, payload, got)

		require.NoError(t, b.Close(h))
		assert.Equal(t, payload, ReadFile(t, path))
	})

	t.Run("PositionalLeavesCursor", func(t *testing.T) {
		b := setup(t)
		h, err := b.Open(TempFile(t, "a.bin", []byte("0123456789")))
		require.NoError(t, err)

		require.NoError(t, b.Seek(h, 2))
		n, err := b.WriteAt(h, []byte("AB"), 8)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		buf := make([]byte, 3)
		n, err = b.ReadAt(h, buf, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, []byte("012"), buf)

		n, err = b.Read(h, buf)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, []byte("234"), buf)

		buf = make([]byte, 10)
		n, err = b.ReadAt(h, buf, 0)
		require.NoError(t, err)
		assert.Equal(t, 10, n)
		assert.Equal(t, []byte("01234567AB"), buf)
	})

	t.Run("ShortReadAtEOF", func(t *testing.T) {
		b := setup(t)
		h, err := b.Open(TempFile(t, "a.bin", []byte("abc")))
		require.NoError(t, err)

		buf := make([]byte, 8)
		n, err := b.ReadAt(h, buf, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []byte("bc"), buf[:n])

		n, err = b.ReadAt(h, buf, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("OpenMissingFile", func(t *testing.T) {
		b := setup(t)
		h, err := b.Open(MissingFile(t))
		require.Error(t, err)
		assert.Equal(t, backend.InvalidHandle, h)

		var opErr *backend.OpError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, "open", opErr.Op)
		assert.Equal(t, b.Type(), opErr.Backend)
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		b := setup(t)
		h, err := b.Open(TempFile(t, "a.bin", []byte("abc")))
		require.NoError(t, err)

		assert.ErrorIs(t, b.Seek(h, -1), backend.ErrNegativeOffset)
		_, err = b.ReadAt(h, make([]byte, 1), -1)
		assert.ErrorIs(t, err, backend.ErrNegativeOffset)
		_, err = b.WriteAt(h, []byte("x"), -1)
		assert.ErrorIs(t, err, backend.ErrNegativeOffset)
	})

	t.Run("ShutdownClosesOpenHandles", func(t *testing.T) {
		b := newBackend(t)
		h, err := b.Open(TempFile(t, "a.bin", nil))
		require.NoError(t, err)
		require.NoError(t, b.Shutdown())

		_, err = b.Read(h, make([]byte, 1))
		assert.ErrorIs(t, err, backend.ErrShutdown)
		_, err = b.Open(TempFile(t, "b.bin", nil))
		assert.ErrorIs(t, err, backend.ErrShutdown)
		assert.ErrorIs(t, b.Shutdown(), backend.ErrShutdown)
	})
}
