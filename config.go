package ompfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/internal/resource"
)

// Environment variables read by FromEnv.
const (
	EnvBackend       = "LIBOMPFILE_BACKEND"
	EnvIOTokens      = "LIBOMPFILE_IO_TOKENS"
	EnvIOBytesPerSec = "LIBOMPFILE_IO_BYTES_PER_SEC"
	EnvURingDepth    = "LIBOMPFILE_URING_DEPTH"
	EnvMPIAtomic     = "LIBOMPFILE_MPI_ATOMIC"
	EnvDebug         = "LIBOMPFILE_DEBUG"
)

// Config is the configuration resolved from the environment.
// Invalid values never fail; they fall back to defaults and are recorded
// in Warnings.
type Config struct {
	Backend       backend.Type
	IOTokens      int
	IOBytesPerSec int64
	QueueDepth    uint32
	Atomicity     bool
	Debug         bool

	Warnings []string
}

// LoadConfig reads the LIBOMPFILE_* environment variables.
//
// An absent or unrecognised backend name selects MPI. An absent, malformed
// or non-positive token count selects 4. Counts are base 10 only: "010" is
// ten, while "0x10" and "3.7" are malformed. Variables set to blanks count as
// absent.
func LoadConfig() Config {
	cfg := Config{
		Backend:  backend.MPI,
		IOTokens: resource.DefaultTokens,
	}

	if name, ok := lookupEnv(EnvBackend); ok {
		if t, ok := backend.ParseType(name); ok {
			cfg.Backend = t
		} else {
			cfg.warnf("unknown %s %q, falling back to %s", EnvBackend, name, backend.MPI)
		}
	}

	if v, ok := lookupEnv(EnvIOTokens); ok {
		// Silent fallback: a bad token count is not worth a warning.
		if n, err := cast.ToIntE(decimal(v)); err == nil && n > 0 {
			cfg.IOTokens = n
		}
	}

	if v, ok := lookupEnv(EnvIOBytesPerSec); ok {
		if n, err := cast.ToInt64E(decimal(v)); err == nil && n > 0 {
			cfg.IOBytesPerSec = n
		} else {
			cfg.warnf("ignoring invalid %s %q", EnvIOBytesPerSec, v)
		}
	}

	if v, ok := lookupEnv(EnvURingDepth); ok {
		if n, err := cast.ToUint32E(decimal(v)); err == nil && n > 0 {
			cfg.QueueDepth = n
		} else {
			cfg.warnf("ignoring invalid %s %q", EnvURingDepth, v)
		}
	}

	if v, ok := lookupEnv(EnvMPIAtomic); ok {
		on, err := cast.ToBoolE(v)
		if err != nil {
			cfg.warnf("ignoring invalid %s %q", EnvMPIAtomic, v)
		}
		cfg.Atomicity = on
	}

	if v, ok := lookupEnv(EnvDebug); ok {
		cfg.Debug, _ = cast.ToBoolE(v)
	}

	return cfg
}

// lookupEnv treats a variable set to blanks as absent.
func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// decimal normalises a base-10 integer so cast cannot read it with another
// base. Anything else comes back as "" and fails conversion.
func decimal(v string) string {
	v = strings.TrimSpace(v)
	sign := ""
	if v != "" && (v[0] == '+' || v[0] == '-') {
		sign, v = v[:1], v[1:]
	}
	if v == "" || strings.TrimLeft(v, "0123456789") != "" {
		return ""
	}
	if v = strings.TrimLeft(v, "0"); v == "" {
		v = "0"
	}
	return sign + v
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}
