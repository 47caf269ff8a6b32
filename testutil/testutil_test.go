package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesDeterministic(t *testing.T) {
	a := NewRNG(4711).Bytes(64)
	b := NewRNG(4711).Bytes(64)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestReset(t *testing.T) {
	rng := NewRNG(42)
	first := rng.Bytes(16)
	rng.Reset()

	assert.Equal(t, first, rng.Bytes(16))
	assert.Equal(t, int64(42), rng.Seed())
}

func TestChunks(t *testing.T) {
	rng := NewRNG(4711)

	chunks := rng.Chunks(1000, 64)

	total := 0
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.LessOrEqual(t, len(c), 64)
		total += len(c)
	}
	assert.Equal(t, 1000, total)
}

func TestTempFile(t *testing.T) {
	path := TempFile(t, "x.bin", []byte("hello"))

	assert.Equal(t, []byte("hello"), ReadFile(t, path))
	assert.NoFileExists(t, MissingFile(t))
}
