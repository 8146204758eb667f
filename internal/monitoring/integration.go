package monitoring

import (
	"sync"
)

//nolint:gochecknoglobals // Required for singleton pattern in monitoring system
var (
	globalCollector *MetricsCollector
	globalMutex     sync.RWMutex
)

// SetGlobalCollector sets the collector used by runs without their own.
func SetGlobalCollector(collector *MetricsCollector) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalCollector = collector
}

// GetGlobalCollector returns the global metrics collector, or nil.
func GetGlobalCollector() *MetricsCollector {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return globalCollector
}

// Record runs fn through collector, falling back to the global collector.
// Without either, fn simply runs.
func Record(collector *MetricsCollector, operation string, rows int, parallel bool, fn func() error) error {
	if collector == nil {
		collector = GetGlobalCollector()
	}
	if collector == nil {
		return fn()
	}
	return collector.RecordOperation(operation, rows, parallel, fn)
}

// EnableGlobalMonitoring creates and sets a global metrics collector.
func EnableGlobalMonitoring() {
	SetGlobalCollector(NewMetricsCollector(true))
}

// DisableGlobalMonitoring disables the global metrics collector.
func DisableGlobalMonitoring() {
	collector := GetGlobalCollector()
	if collector != nil {
		collector.SetEnabled(false)
	}
}

// GetGlobalSummary returns a summary from the global collector.
func GetGlobalSummary() MetricsSummary {
	collector := GetGlobalCollector()
	if collector == nil {
		return MetricsSummary{}
	}
	return collector.GetSummary()
}
