package logger

import (
	"sync"
	"time"
)

// Metrics tracks counters, gauges and timings. All operations are thread-safe.
//
// Timings are folded into running aggregates as they are recorded, so a
// long-running server holds one entry per timing name.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string]*timingStats
}

// timingStats aggregates the samples recorded under one name
type timingStats struct {
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

func (t *timingStats) add(d time.Duration) {
	if t.count == 0 || d < t.min {
		t.min = d
	}
	if t.count == 0 || d > t.max {
		t.max = d
	}
	t.count++
	t.total += d
}

func (t *timingStats) average() time.Duration {
	if t.count == 0 {
		return 0
	}
	return t.total / time.Duration(t.count)
}

var defaultMetrics = NewMetrics()

// NewMetrics creates an empty metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string]*timingStats),
	}
}

// IncrCounter increments a counter by 1
func (m *Metrics) IncrCounter(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// Counter returns the current value of a counter
func (m *Metrics) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// SetGauge sets a gauge, overwriting any previous value
func (m *Metrics) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = value
}

// RecordTiming adds one duration sample to the aggregate for name
func (m *Metrics) RecordTiming(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.timings[name]
	if !ok {
		stats = &timingStats{}
		m.timings[name] = stats
	}
	stats.add(duration)
}

// GetSnapshot copies the current values. Timings are reported per name as
// count, total, average, min and max, with durations formatted as strings
// so the snapshot serves /api/metrics directly.
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}

	timings := make(map[string]map[string]interface{}, len(m.timings))
	for name, stats := range m.timings {
		timings[name] = map[string]interface{}{
			"count":   stats.count,
			"total":   stats.total.String(),
			"average": stats.average().String(),
			"min":     stats.min.String(),
			"max":     stats.max.String(),
		}
	}

	return map[string]interface{}{
		"counters": counters,
		"gauges":   gauges,
		"timings":  timings,
	}
}

// IncrCounter increments a counter on the default metrics tracker
func IncrCounter(name string) {
	defaultMetrics.IncrCounter(name)
}

// SetGauge sets a gauge on the default metrics tracker
func SetGauge(name string, value float64) {
	defaultMetrics.SetGauge(name, value)
}

// RecordTiming records a timing on the default metrics tracker
func RecordTiming(name string, duration time.Duration) {
	defaultMetrics.RecordTiming(name, duration)
}

// DefaultMetrics returns the process-wide metrics tracker
func DefaultMetrics() *Metrics {
	return defaultMetrics
}

// GetMetricsSnapshot returns a snapshot of the default tracker
func GetMetricsSnapshot() map[string]interface{} {
	return defaultMetrics.GetSnapshot()
}
