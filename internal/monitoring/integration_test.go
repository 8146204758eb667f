//nolint:testpackage // requires internal access to unexported types and functions
package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	defer SetGlobalCollector(nil)

	t.Run("no collector at all", func(t *testing.T) {
		SetGlobalCollector(nil)

		called := false
		err := Record(nil, "Filter", 1, false, func() error {
			called = true
			return nil
		})

		require.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, MetricsSummary{}, GetGlobalSummary())
	})

	t.Run("falls back to the global collector", func(t *testing.T) {
		EnableGlobalMonitoring()

		require.NoError(t, Record(nil, "Filter", 5, false, func() error { return nil }))
		assert.Equal(t, 1, GetGlobalSummary().TotalOperations)

		DisableGlobalMonitoring()
		require.NoError(t, Record(nil, "Filter", 5, false, func() error { return nil }))
		assert.Equal(t, 1, GetGlobalSummary().TotalOperations)
	})

	t.Run("explicit collector wins", func(t *testing.T) {
		EnableGlobalMonitoring()
		own := NewMetricsCollector(true)

		require.NoError(t, Record(own, "Resample", 2, false, func() error { return nil }))
		assert.Len(t, own.GetMetrics(), 1)
		assert.Equal(t, 0, GetGlobalSummary().TotalOperations)
	})
}
