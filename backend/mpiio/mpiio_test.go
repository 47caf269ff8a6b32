package mpiio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/internal/fs"
	"github.com/hupe1980/ompfile/internal/mpi"
	"github.com/hupe1980/ompfile/testutil"
)

func newBackend(t *testing.T, optFns ...func(*Options)) *Backend {
	t.Helper()
	rt := mpi.NewRuntime()
	fns := append([]func(*Options){func(o *Options) { o.Runtime = rt }}, optFns...)
	b, err := New(fns...)
	require.NoError(t, err)
	return b
}

func TestConformance(t *testing.T) {
	testutil.RunBackendSuite(t, func(t *testing.T) backend.Backend {
		return newBackend(t)
	})
}

func TestConformanceAtomic(t *testing.T) {
	testutil.RunBackendSuite(t, func(t *testing.T) backend.Backend {
		return newBackend(t, func(o *Options) { o.Atomicity = true })
	})
}

func TestOwnsRuntime(t *testing.T) {
	rt := mpi.NewRuntime()

	b, err := New(func(o *Options) { o.Runtime = rt })
	require.NoError(t, err)
	assert.True(t, b.OwnsRuntime())
	assert.True(t, rt.Initialized())
	assert.Equal(t, mpi.ThreadMultiple, rt.Provided())
	assert.Equal(t, 1, rt.LiveComms())

	require.NoError(t, b.Shutdown())
	assert.True(t, rt.Finalized())
	assert.Equal(t, 0, rt.LiveComms())
}

func TestRespectsApplicationRuntime(t *testing.T) {
	rt := mpi.NewRuntime()
	_, err := rt.InitThread(mpi.ThreadFunneled)
	require.NoError(t, err)

	b, err := New(func(o *Options) { o.Runtime = rt })
	require.NoError(t, err)
	assert.False(t, b.OwnsRuntime())

	world, err := rt.CommWorld()
	require.NoError(t, err)
	assert.NotEqual(t, world.ID(), b.Comm().ID(), "file I/O uses a private communicator")

	require.NoError(t, b.Shutdown())
	assert.False(t, rt.Finalized())
	assert.True(t, b.Comm().Freed())
	assert.Equal(t, 0, rt.LiveComms())
	require.NoError(t, rt.Finalize())
}

func TestFinalizedRuntime(t *testing.T) {
	rt := mpi.NewRuntime()
	_, err := rt.InitThread(mpi.ThreadMultiple)
	require.NoError(t, err)
	require.NoError(t, rt.Finalize())

	_, err = New(func(o *Options) { o.Runtime = rt })
	assert.ErrorIs(t, err, mpi.ErrFinalized)
}

func TestAtomicityApplied(t *testing.T) {
	b := newBackend(t, func(o *Options) { o.Atomicity = true })
	defer func() { _ = b.Shutdown() }()

	h, err := b.Open(testutil.TempFile(t, "a.bin", nil))
	require.NoError(t, err)

	f, ok := b.files.Get(h)
	require.True(t, ok)
	assert.True(t, f.Atomicity())
}

func TestInjectedFaults(t *testing.T) {
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("noopen", fs.Fault{FailOnOpen: true, FailAfterBytes: -1})
	faulty.AddRule("noread", fs.Fault{FailOnRead: true, FailAfterBytes: -1})
	faulty.AddRule("full", fs.Fault{FailAfterBytes: 4})
	faulty.AddRule("noclose", fs.Fault{FailOnClose: true, FailAfterBytes: -1})

	rt := mpi.NewRuntime(mpi.WithFileSystem(faulty))
	b, err := New(func(o *Options) { o.Runtime = rt })
	require.NoError(t, err)

	_, err = b.Open(testutil.TempFile(t, "noopen.bin", nil))
	assert.ErrorIs(t, err, fs.ErrInjected)

	h, err := b.Open(testutil.TempFile(t, "noread.bin", []byte("abc")))
	require.NoError(t, err)
	_, err = b.Read(h, make([]byte, 3))
	assert.ErrorIs(t, err, fs.ErrInjected)
	require.NoError(t, b.Close(h))

	h, err = b.Open(testutil.TempFile(t, "full.bin", nil))
	require.NoError(t, err)
	n, err := b.Write(h, []byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	_, err = b.Write(h, []byte("e"))
	assert.ErrorIs(t, err, fs.ErrInjected)
	require.NoError(t, b.Close(h))

	h, err = b.Open(testutil.TempFile(t, "noclose.bin", nil))
	require.NoError(t, err)
	assert.ErrorIs(t, b.Close(h), fs.ErrInjected)
	_, err = b.Write(h, []byte("x"))
	assert.NoError(t, err, "handle stays valid after a failed close")

	err = b.Shutdown()
	assert.ErrorIs(t, err, fs.ErrInjected)
	assert.Equal(t, 0, rt.LiveComms())
}
