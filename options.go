package ompfile

import (
	"log/slog"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/internal/mpi"
	"github.com/hupe1980/ompfile/internal/resource"
)

type options struct {
	backend          backend.Type
	ioTokens         int
	ioLimit          int64
	queueDepth       uint32
	mpiRuntime       *mpi.Runtime
	atomicity        bool
	debug            bool
	metricsCollector MetricsCollector
	logger           *Logger
	warnings         []string

	// newBackend replaces backend construction when set.
	newBackend func(*Logger) (backend.Backend, error)
}

// Option configures a Context.
//
// Options are applied in order, so an explicit option placed after FromEnv
// overrides the environment.
type Option func(*options)

// WithBackend selects the backend. HDF5 yields a Context without an active
// backend whose operations all fail with ErrNoBackend.
func WithBackend(t backend.Type) Option {
	return func(o *options) {
		o.backend = t
	}
}

// WithIOTokens sets the number of operations admitted concurrently.
// Values <= 0 select the default of 4.
func WithIOTokens(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = resource.DefaultTokens
		}
		o.ioTokens = n
	}
}

// WithIOLimit caps read and write throughput in bytes per second.
// Zero disables the cap.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithQueueDepth sets the io_uring queue depth. Zero selects the default.
func WithQueueDepth(depth uint32) Option {
	return func(o *options) {
		o.queueDepth = depth
	}
}

// WithMPIRuntime sets the parallel runtime used by the MPI backend.
// If nil is passed, the process-wide runtime is used.
func WithMPIRuntime(rt *mpi.Runtime) Option {
	return func(o *options) {
		o.mpiRuntime = rt
	}
}

// WithAtomicity opens files of the MPI backend in atomic mode.
func WithAtomicity(on bool) Option {
	return func(o *options) {
		o.atomicity = on
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &ompfile.BasicMetricsCollector{}
//	c, _ := ompfile.New(ompfile.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Writes: %d, Bytes: %d\n", stats.WriteCount, stats.WriteBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := ompfile.NewJSONLogger(slog.LevelDebug)
//	c, _ := ompfile.New(ompfile.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// FromEnv applies the LIBOMPFILE_* environment variables. See LoadConfig.
func FromEnv() Option {
	return func(o *options) {
		cfg := LoadConfig()
		o.backend = cfg.Backend
		o.ioTokens = cfg.IOTokens
		o.ioLimit = cfg.IOBytesPerSec
		o.queueDepth = cfg.QueueDepth
		o.atomicity = cfg.Atomicity
		o.debug = cfg.Debug
		o.warnings = append(o.warnings, cfg.Warnings...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		backend:          backend.MPI,
		ioTokens:         resource.DefaultTokens,
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		// Warnings are always reported; debug diagnostics only on request.
		level := slog.LevelWarn
		if o.debug {
			level = slog.LevelDebug
		}
		o.logger = NewTextLogger(level)
	}
	return o
}
