package jwtguard

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricAuthSuccess counts authentication passes ending Authenticated.
	MetricAuthSuccess MetricID = iota
	// MetricAuthRejected counts credential rejections of any cause.
	MetricAuthRejected
	// MetricAuthExcluded counts requests skipped via excluded paths.
	MetricAuthExcluded
	// MetricAuthRetrievalFailure counts user retriever malfunctions.
	MetricAuthRetrievalFailure
	// MetricTokenIssued counts tokens minted through CreateToken or Login.
	MetricTokenIssued
	// MetricLoginResponses counts login responses written.
	MetricLoginResponses

	metricIDCount
)

// Metrics holds lock-free counters. When disabled, all operations are no-ops.
// The write path is allocation-free.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot map[MetricID]uint64

// Snapshot returns a copy of every counter. It returns an empty snapshot
// when metrics are disabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := make(MetricsSnapshot, int(metricIDCount))
	if m == nil || !m.enabled {
		return snapshot
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snapshot[id] = m.counters[id].Load()
	}
	return snapshot
}
