package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// MetricsState keeps a rolling average of pass times plus counters for the
// non-fatal composition outcomes.
type MetricsState struct {
	mu sync.Mutex

	passAVGCounter uint8
	passTimes      [AVG_COUNT]float64
	filled         uint8

	Passes             uint64
	CalibrationMisses  uint64
	UnresolvedAnchors  uint64
	MissingSockets     uint64
	VariantFallbacks   uint64
	SuspiciousClusters uint64
	LastPassMS         float64
}

func NewMetrics() *MetricsState {
	return &MetricsState{}
}

// RecordPass stores the duration of a completed pass.
func (m *MetricsState) RecordPass(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := float64(elapsed) / float64(time.Millisecond)
	m.passTimes[m.passAVGCounter] = ms
	m.passAVGCounter++
	m.passAVGCounter %= AVG_COUNT
	if m.filled < AVG_COUNT {
		m.filled++
	}
	m.LastPassMS = ms
	m.Passes++
}

// AveragePassMS returns the mean of the most recent passes.
func (m *MetricsState) AveragePassMS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.filled == 0 {
		return 0
	}
	sum := 0.0
	for i := uint8(0); i < m.filled; i++ {
		sum += m.passTimes[i]
	}
	return sum / float64(m.filled)
}

func (m *MetricsState) IncCalibrationMiss()   { m.inc(&m.CalibrationMisses) }
func (m *MetricsState) IncUnresolvedAnchor()  { m.inc(&m.UnresolvedAnchors) }
func (m *MetricsState) IncMissingSocket()     { m.inc(&m.MissingSockets) }
func (m *MetricsState) IncVariantFallback()   { m.inc(&m.VariantFallbacks) }
func (m *MetricsState) IncSuspiciousCluster() { m.inc(&m.SuspiciousClusters) }

func (m *MetricsState) inc(counter *uint64) {
	m.mu.Lock()
	*counter++
	m.mu.Unlock()
}

// Snapshot is a copy of the counters safe to read without the lock.
type Snapshot struct {
	Passes             uint64
	CalibrationMisses  uint64
	UnresolvedAnchors  uint64
	MissingSockets     uint64
	VariantFallbacks   uint64
	SuspiciousClusters uint64
	LastPassMS         float64
	AveragePassMS      float64
}

func (m *MetricsState) Snapshot() Snapshot {
	avg := m.AveragePassMS()
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Passes:             m.Passes,
		CalibrationMisses:  m.CalibrationMisses,
		UnresolvedAnchors:  m.UnresolvedAnchors,
		MissingSockets:     m.MissingSockets,
		VariantFallbacks:   m.VariantFallbacks,
		SuspiciousClusters: m.SuspiciousClusters,
		LastPassMS:         m.LastPassMS,
		AveragePassMS:      avg,
	}
}
