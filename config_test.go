package ompfile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/ompfile/backend"
)

// clearEnv makes every LIBOMPFILE_* variable count as absent.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvBackend, EnvIOTokens, EnvIOBytesPerSec, EnvURingDepth, EnvMPIAtomic, EnvDebug} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig()

	assert.Equal(t, backend.MPI, cfg.Backend)
	assert.Equal(t, 4, cfg.IOTokens)
	assert.Zero(t, cfg.IOBytesPerSec)
	assert.Zero(t, cfg.QueueDepth)
	assert.False(t, cfg.Atomicity)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadConfigBackend(t *testing.T) {
	tests := []struct {
		value string
		want  backend.Type
		warn  bool
	}{
		{"MPI", backend.MPI, false},
		{"POSIX", backend.POSIX, false},
		{"IO_URING", backend.IOURing, false},
		{"HDF5", backend.HDF5, false},
		{"posix", backend.POSIX, false},
		{"NFS", backend.MPI, true},
		{"URING", backend.MPI, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvBackend, tt.value)

			cfg := LoadConfig()

			assert.Equal(t, tt.want, cfg.Backend)
			if tt.warn {
				assert.Len(t, cfg.Warnings, 1)
				assert.Contains(t, cfg.Warnings[0], tt.value)
			} else {
				assert.Empty(t, cfg.Warnings)
			}
		})
	}
}

func TestLoadConfigTokens(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"1", 1},
		{"8", 8},
		{"0", 4},
		{"-3", 4},
		{"many", 4},
		{"", 4},
		{"010", 10},
		{" 12 ", 12},
		{"+5", 5},
		{"0x10", 4},
		{"0b11", 4},
		{"3.7", 4},
		{"1e2", 4},
		{"7abc", 4},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvIOTokens, tt.value)

			cfg := LoadConfig()

			assert.Equal(t, tt.want, cfg.IOTokens)
			assert.Empty(t, cfg.Warnings)
		})
	}
}

func TestLoadConfigDecimalOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvIOBytesPerSec, "0x400")
	t.Setenv(EnvURingDepth, "020")

	cfg := LoadConfig()

	assert.Zero(t, cfg.IOBytesPerSec)
	assert.Equal(t, uint32(20), cfg.QueueDepth)
	assert.Len(t, cfg.Warnings, 1)
}

func TestLoadConfigOptional(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvIOBytesPerSec, "1048576")
	t.Setenv(EnvURingDepth, "128")
	t.Setenv(EnvMPIAtomic, "true")
	t.Setenv(EnvDebug, "1")

	cfg := LoadConfig()

	assert.Equal(t, int64(1048576), cfg.IOBytesPerSec)
	assert.Equal(t, uint32(128), cfg.QueueDepth)
	assert.True(t, cfg.Atomicity)
	assert.True(t, cfg.Debug)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadConfigInvalidOptional(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvIOBytesPerSec, "fast")
	t.Setenv(EnvURingDepth, "deep")
	t.Setenv(EnvMPIAtomic, "sometimes")

	cfg := LoadConfig()

	assert.Zero(t, cfg.IOBytesPerSec)
	assert.Zero(t, cfg.QueueDepth)
	assert.False(t, cfg.Atomicity)
	assert.Len(t, cfg.Warnings, 3)
}

func TestFromEnvThenOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBackend, "IO_URING")
	t.Setenv(EnvIOTokens, "7")

	o := applyOptions([]Option{FromEnv(), WithBackend(backend.POSIX)})

	assert.Equal(t, backend.POSIX, o.backend)
	assert.Equal(t, 7, o.ioTokens)
}
