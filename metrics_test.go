package ompfile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordOp(OpWrite, 100, 2*time.Millisecond, nil)
	m.RecordOp(OpWriteAt, 50, 4*time.Millisecond, nil)
	m.RecordOp(OpRead, 0, time.Millisecond, errors.New("boom"))
	m.RecordOp(OpOpen, 0, time.Millisecond, nil)
	m.RecordAdmission(0)
	m.RecordAdmission(3 * time.Millisecond)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.WriteCount)
	assert.Equal(t, int64(150), stats.WriteBytes)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.WriteAvgNanos)
	assert.Equal(t, int64(1), stats.ReadCount)
	assert.Equal(t, int64(1), stats.ReadErrors)
	assert.Equal(t, int64(1), stats.OpenCount)
	assert.Equal(t, int64(2), stats.Admissions)
	assert.Equal(t, int64(1), stats.Contended)
	assert.Equal(t, (3 * time.Millisecond).Nanoseconds(), stats.AdmissionAvgNanos)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "write_at", OpWriteAt.String())
	assert.Equal(t, "unknown", Op(99).String())
}

func TestNoopMetricsCollector(t *testing.T) {
	var m MetricsCollector = NoopMetricsCollector{}
	m.RecordOp(OpRead, 1, time.Second, nil)
	m.RecordAdmission(time.Second)
}
