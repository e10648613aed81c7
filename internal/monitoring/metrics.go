// Package monitoring times the stages of a completion run.
package monitoring

import (
	"runtime"
	"sync"
	"time"
)

// StageMetrics records one run of a completion stage.
type StageMetrics struct {
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration"`
	Rows       int64         `json:"rows"`
	MemoryUsed int64         `json:"memory_used"`
	Failed     bool          `json:"failed"`
}

// MetricsCollector collects stage metrics. A disabled collector runs the
// stages without measuring them.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []StageMetrics
	enabled bool
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return &MetricsCollector{
		metrics: make([]StageMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// SetEnabled enables or disables metrics collection.
func (mc *MetricsCollector) SetEnabled(enabled bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.enabled = enabled
}

// RecordStage runs fn and records its duration, the row count it reports
// and the heap growth it caused.
func (mc *MetricsCollector) RecordStage(stage string, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	rows, err := fn()

	duration := time.Since(start)
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	m := StageMetrics{
		Stage:      stage,
		Duration:   duration,
		Rows:       int64(rows),
		MemoryUsed: int64(after.TotalAlloc - before.TotalAlloc), //nolint:gosec // TotalAlloc is monotonic
		Failed:     err != nil,
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, m)
	mc.mu.Unlock()
	return err
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []StageMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]StageMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Clear removes all collected metrics.
func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.metrics = mc.metrics[:0]
}

// GetSummary aggregates the collected metrics per stage.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	summary := MetricsSummary{
		StageDurations: make(map[string]time.Duration),
		StageCounts:    make(map[string]int),
	}
	for _, m := range mc.metrics {
		summary.TotalStages++
		summary.TotalDuration += m.Duration
		summary.TotalMemory += m.MemoryUsed
		summary.StageDurations[m.Stage] += m.Duration
		summary.StageCounts[m.Stage]++
		if m.Failed {
			summary.Failures++
		}
	}
	return summary
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalStages    int                      `json:"total_stages"`
	TotalDuration  time.Duration            `json:"total_duration"`
	TotalMemory    int64                    `json:"total_memory"`
	Failures       int                      `json:"failures"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	StageCounts    map[string]int           `json:"stage_counts"`
}
