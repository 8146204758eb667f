package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/scmframe"
	"github.com/paveg/scmframe/internal/monitoring"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	saved := scmframe.GetConfig()
	t.Cleanup(func() {
		scmframe.SetConfig(saved)
		monitoring.SetGlobalCollector(nil)
	})

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRangeCommand(t *testing.T) {
	out, err := execute(t, "range", "2000", "2003", "AS")
	require.NoError(t, err)
	assert.Contains(t, out, "2003-01-01 00:00:00")
	assert.Contains(t, out, "4 timestamps, offset AS-JAN, calendar standard")

	out, err = execute(t, "range", "2000-02-28", "2000-03-01", "D", "--calendar", "360_day")
	require.NoError(t, err)
	assert.Contains(t, out, "2000-02-30 00:00:00")
	assert.Contains(t, out, "4 timestamps")

	_, err = execute(t, "range", "2000", "2001", "XS")
	assert.Error(t, err)
	_, err = execute(t, "range", "2000", "2001", "AS", "--calendar", "lunar")
	assert.Error(t, err)
	_, err = execute(t, "range", "2000-01", "2001", "AS")
	assert.Error(t, err)
}

func TestParseDateTime(t *testing.T) {
	dt, err := parseDateTime(scmframe.Standard, "2010-06-15 12:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2010-06-15 12:30:00", dt.String())

	dt, err = parseDateTime(scmframe.Standard, "2010-06-15T06:00:00")
	require.NoError(t, err)
	assert.Equal(t, 6, dt.Hour)

	dt, err = parseDateTime(scmframe.Day360, "2001-02-30")
	require.NoError(t, err)
	assert.Equal(t, 30, dt.Day)

	_, err = parseDateTime(scmframe.NoLeap, "2000-02-29")
	assert.Error(t, err)
}

func TestMatchCommand(t *testing.T) {
	out, err := execute(t, "match", "Emissions|*", "Emissions", "Emissions|CO2", "Emissions|CO2|Fossil",
		"--level", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 3 labels match")

	out, err = execute(t, "match", "^ssp[12]", "ssp119", "ssp245", "ssp585", "--regexp")
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 3 labels match")

	_, err = execute(t, "match", "only-a-pattern")
	assert.Error(t, err)
}

func TestDemoCommand(t *testing.T) {
	out, err := execute(t, "demo", "--members", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Ensemble: <Run timeseries=15")
	assert.Contains(t, out, "SR1.5 category")
	assert.Contains(t, out, "Metadata record: 15 rows, 7 columns")

	_, err = execute(t, "demo", "--members", "0")
	assert.Error(t, err)
}

func TestMetricsFlag(t *testing.T) {
	out, err := execute(t, "--metrics", "demo", "--members", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "operations in")
	assert.Contains(t, out, "Filter")

	out, err = execute(t, "demo", "--members", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "operations in")
}

func TestEnvironmentConfig(t *testing.T) {
	t.Setenv("SCMFRAME_HIERARCHY_SEPARATOR", "/")
	out, err := execute(t, "match", "a/*", "a/b", "a/b/c", "--level", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 labels match")

	t.Setenv("SCMFRAME_PARALLEL_THRESHOLD", "-1")
	_, err = execute(t, "version")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestBenchmarkCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("benchmark command runs every scenario")
	}
	out, err := execute(t, "benchmark", "--rows", "25")
	require.NoError(t, err)
	for _, name := range []string{"filter", "interpolate", "groupby-mean", "append", "summary"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "failed")

	out, err = execute(t, "benchmark", "--rows", "25", "--report")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# scmframe Benchmark Report"))

	_, err = execute(t, "benchmark", "--rows", "1")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "scmframe climate ensemble toolkit")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scmframe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hierarchy_separator: \"/\"\n"), 0o600))

	out, err := execute(t, "--config", path, "match", "a/*", "a", "a/b", "a|b")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 3 labels match")

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "version")
	assert.Error(t, err)
}
