package ompfile

import (
	"sync/atomic"
	"time"
)

// Op identifies a dispatched operation.
type Op uint8

const (
	OpOpen Op = iota
	OpClose
	OpRead
	OpWrite
	OpSeek
	OpReadAt
	OpWriteAt
)

func (o Op) String() string {
	switch o {
	case OpOpen:
		return "open"
	case OpClose:
		return "close"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpSeek:
		return "seek"
	case OpReadAt:
		return "read_at"
	case OpWriteAt:
		return "write_at"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    bytesCounter *prometheus.CounterVec
//	    opHistogram  *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordOp(op ompfile.Op, bytes int, d time.Duration, err error) {
//	    p.bytesCounter.WithLabelValues(op.String()).Add(float64(bytes))
//	    p.opHistogram.WithLabelValues(op.String()).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordOp is called after each dispatched operation.
	// bytes is the transferred byte count for reads and writes, zero otherwise.
	// duration covers the backend call only, err is nil if successful.
	RecordOp(op Op, bytes int, duration time.Duration, err error)

	// RecordAdmission is called after each token admission with the time
	// spent backing off before a token was granted.
	RecordAdmission(wait time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOp(Op, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordAdmission(time.Duration)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	CloseCount      atomic.Int64
	CloseErrors     atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadBytes       atomic.Int64
	ReadTotalNanos  atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	WriteTotalNanos atomic.Int64
	SeekCount       atomic.Int64
	SeekErrors      atomic.Int64
	Admissions      atomic.Int64
	Contended       atomic.Int64
	AdmissionNanos  atomic.Int64
}

// RecordOp implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOp(op Op, bytes int, duration time.Duration, err error) {
	switch op {
	case OpOpen:
		b.OpenCount.Add(1)
		if err != nil {
			b.OpenErrors.Add(1)
		}
	case OpClose:
		b.CloseCount.Add(1)
		if err != nil {
			b.CloseErrors.Add(1)
		}
	case OpRead, OpReadAt:
		b.ReadCount.Add(1)
		b.ReadBytes.Add(int64(bytes))
		b.ReadTotalNanos.Add(duration.Nanoseconds())
		if err != nil {
			b.ReadErrors.Add(1)
		}
	case OpWrite, OpWriteAt:
		b.WriteCount.Add(1)
		b.WriteBytes.Add(int64(bytes))
		b.WriteTotalNanos.Add(duration.Nanoseconds())
		if err != nil {
			b.WriteErrors.Add(1)
		}
	case OpSeek:
		b.SeekCount.Add(1)
		if err != nil {
			b.SeekErrors.Add(1)
		}
	}
}

// RecordAdmission implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdmission(wait time.Duration) {
	b.Admissions.Add(1)
	if wait > 0 {
		b.Contended.Add(1)
		b.AdmissionNanos.Add(wait.Nanoseconds())
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:         b.OpenCount.Load(),
		OpenErrors:        b.OpenErrors.Load(),
		CloseCount:        b.CloseCount.Load(),
		CloseErrors:       b.CloseErrors.Load(),
		ReadCount:         b.ReadCount.Load(),
		ReadErrors:        b.ReadErrors.Load(),
		ReadBytes:         b.ReadBytes.Load(),
		ReadAvgNanos:      avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		WriteCount:        b.WriteCount.Load(),
		WriteErrors:       b.WriteErrors.Load(),
		WriteBytes:        b.WriteBytes.Load(),
		WriteAvgNanos:     avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		SeekCount:         b.SeekCount.Load(),
		SeekErrors:        b.SeekErrors.Load(),
		Admissions:        b.Admissions.Load(),
		Contended:         b.Contended.Load(),
		AdmissionAvgNanos: avg(b.AdmissionNanos.Load(), b.Contended.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount     int64
	OpenErrors    int64
	CloseCount    int64
	CloseErrors   int64
	ReadCount     int64
	ReadErrors    int64
	ReadBytes     int64
	ReadAvgNanos  int64
	WriteCount    int64
	WriteErrors   int64
	WriteBytes    int64
	WriteAvgNanos int64
	SeekCount     int64
	SeekErrors    int64
	Admissions    int64
	Contended     int64

	// AdmissionAvgNanos averages over contended admissions only.
	AdmissionAvgNanos int64
}
