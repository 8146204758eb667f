package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/testutil"
)

func TestSetupMemoryTest(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	require.NotNil(t, mem.Allocator)

	col := meta.NewStringColumn("scenario", []string{"a", "b"}, mem.Allocator)
	defer col.Release()
	assert.Equal(t, 2, col.Len())
}

func TestNewEnsemble(t *testing.T) {
	t.Run("default configuration", func(t *testing.T) {
		r := testutil.NewEnsemble(t)

		assert.Equal(t, 9, r.Len())
		assert.Equal(t, 11, r.TimeAxis().Len())
		testutil.AssertRunNotEmpty(t, r)
		testutil.AssertRunHasColumns(t, r, "climate_model", "ensemble_member", "model",
			"region", "scenario", "unit", "variable")

		// ssp245, member 1
		testutil.AssertRowInDelta(t, r, 4, []float64{
			0.1, 0.3, 0.5, 0.7, 0.9, 1.1, 1.3, 1.5, 1.7, 1.9, 2.1,
		}, 1e-12)
	})

	t.Run("custom shape", func(t *testing.T) {
		r := testutil.NewEnsemble(t,
			testutil.WithScenarios("a"),
			testutil.WithVariables("x", "y"),
			testutil.WithMembers(4),
			testutil.WithYears(2000, 2001),
			testutil.WithUnit("W/m^2"),
		)

		assert.Equal(t, 8, r.Len())
		assert.Equal(t, []string{"x", "x", "x", "x", "y", "y", "y", "y"}, testutil.Labels(t, r, "variable"))
		assert.Equal(t, "W/m^2", testutil.Labels(t, r, "unit")[0])
	})
}

func TestYears(t *testing.T) {
	assert.Equal(t, []int{2000, 2025, 2050}, testutil.Years(2000, 2050, 25))
	assert.Empty(t, testutil.Years(2001, 2000, 1))

	axis := testutil.YearAxis(t, 2000, 2010)
	assert.Equal(t, []int{2000, 2010}, axis.Years())
}

func BenchmarkNewEnsemble(b *testing.B) {
	for i := 0; i < b.N; i++ {
		testutil.NewEnsemble(b, testutil.WithMembers(100))
	}
}
