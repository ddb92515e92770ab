package ai

import (
	"sync/atomic"
	"time"
)

// Metrics tracks content-analysis usage
type Metrics struct {
	Calls        atomic.Int64 // answered by the model
	CacheHits    atomic.Int64
	Timeouts     atomic.Int64
	Errors       atomic.Int64
	Rejected     atomic.Int64 // refused by the open breaker
	TotalLatency atomic.Int64 // cumulative model time (ms)
}

// RecordCall records a model answer and its latency
func (m *Metrics) RecordCall(latency time.Duration) {
	m.Calls.Add(1)
	m.TotalLatency.Add(latency.Milliseconds())
}

func (m *Metrics) RecordCacheHit() { m.CacheHits.Add(1) }
func (m *Metrics) RecordTimeout()  { m.Timeouts.Add(1) }
func (m *Metrics) RecordError()    { m.Errors.Add(1) }
func (m *Metrics) RecordRejected() { m.Rejected.Add(1) }

// Summary returns a map of metrics for display
func (m *Metrics) Summary() map[string]interface{} {
	calls := m.Calls.Load()
	hits := m.CacheHits.Load()
	total := calls + hits + m.Timeouts.Load() + m.Errors.Load() + m.Rejected.Load()

	avgLatency := int64(0)
	if calls > 0 {
		avgLatency = m.TotalLatency.Load() / calls
	}
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"total":          total,
		"calls":          calls,
		"cache_hits":     hits,
		"cache_hit_rate": hitRate,
		"avg_latency_ms": avgLatency,
		"timeouts":       m.Timeouts.Load(),
		"errors":         m.Errors.Load(),
		"rejected":       m.Rejected.Load(),
	}
}
