package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scmerrors "github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
)

func stringColumn(labels ...string) *meta.Column {
	return meta.NewStringColumn("variable", labels, nil)
}

func TestPatternMatchWildcards(t *testing.T) {
	col := stringColumn("a|b|c", "a|b|d", "a|e", "x")

	got, err := PatternMatch(col, meta.Strings("a|b|*"), PatternOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, got)

	got, err = PatternMatch(col, meta.Strings("*|c", "x"), PatternOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true}, got)

	got, err = PatternMatch(col, meta.Strings("a"), PatternOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, false}, got)
}

func TestPatternMatchLevel(t *testing.T) {
	col := stringColumn("a|b|c")

	got, err := PatternMatch(col, meta.Strings("a|b|c"), PatternOptions{Level: ExactLevel(1)})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, got)

	got, err = PatternMatch(col, meta.Strings("a|b|c"), PatternOptions{Level: ExactLevel(0)})
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, got)
}

func TestPatternMatchLevelChildren(t *testing.T) {
	col := stringColumn("Emissions", "Emissions|CO2", "Emissions|CO2|Fossil", "Emissions|CH4", "Temperature")

	tests := []struct {
		name     string
		spec     string
		level    string
		expected []bool
	}{
		{"direct children", "Emissions|*", "1", []bool{false, true, false, true, false}},
		{"grandchildren", "Emissions|*", "2", []bool{false, false, true, false, false}},
		{"up to children", "Emissions|*", "1-", []bool{false, true, false, true, false}},
		{"at least grandchildren", "Emissions|*", "2+", []bool{false, false, true, false, false}},
		{"top level", "*", "0", []bool{true, false, false, false, true}},
		{"top level and children", "*", "1-", []bool{true, true, false, true, true}},
		{"everything below top", "*", "1+", []bool{false, true, true, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ParseLevel(tt.level)
			require.NoError(t, err)
			got, err := PatternMatch(col, meta.Strings(tt.spec), PatternOptions{Level: level})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("3-")
	require.NoError(t, err)
	assert.Equal(t, Level{Depth: 3, Op: LevelAtMost}, *l)
	assert.Equal(t, "3-", l.String())
	assert.True(t, l.Match(0))
	assert.False(t, l.Match(4))

	for _, bad := range []string{"3*", "x", "", "-"} {
		_, err := ParseLevel(bad)
		assert.ErrorIs(t, err, scmerrors.ErrSpecification, bad)
	}
}

func TestPatternMatchLiteralCharacters(t *testing.T) {
	col := stringColumn("Emissions|CO2 (fossil)", "a.b", "axb", "cost$", "x^2", "a+b", "a[b]")

	tests := []struct {
		spec     string
		expected []bool
	}{
		{"Emissions|CO2 (fossil)", []bool{true, false, false, false, false, false, false}},
		{"a.b", []bool{false, true, false, false, false, false, false}},
		{"cost$", []bool{false, false, false, true, false, false, false}},
		{"x^2", []bool{false, false, false, false, true, false, false}},
		{"a+b", []bool{false, false, false, false, false, true, false}},
		{"a[b]", []bool{false, false, false, false, false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := PatternMatch(col, meta.Strings(tt.spec), PatternOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPatternMatchRegexp(t *testing.T) {
	col := stringColumn("ssp126", "ssp245", "rcp26", "xssp1")

	got, err := PatternMatch(col, meta.Strings(`ssp\d(26|45)`), PatternOptions{Regexp: true})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, got)

	// anchored at the start only
	got, err = PatternMatch(col, meta.Strings(`ssp1`), PatternOptions{Regexp: true})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false}, got)

	_, err = PatternMatch(col, meta.Strings(`ssp(`), PatternOptions{Regexp: true})
	assert.ErrorIs(t, err, scmerrors.ErrSpecification)
}

func TestPatternMatchMissing(t *testing.T) {
	col, err := meta.NewColumn("model", []meta.Value{meta.String("MAGICC"), meta.Missing(), meta.String("FaIR")}, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		values   []meta.Value
		expected []bool
	}{
		{"star matches missing", meta.Strings("*"), []bool{true, true, true}},
		{"empty string is missing", meta.Strings(""), []bool{false, true, false}},
		{"nan is missing", []meta.Value{meta.Number(math.NaN())}, []bool{false, true, false}},
		{"explicit missing", []meta.Value{meta.Missing()}, []bool{false, true, false}},
		{"glob skips missing", meta.Strings("*I*"), []bool{true, false, true}},
		{"union", []meta.Value{meta.String("FaIR"), meta.Missing()}, []bool{false, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PatternMatch(col, tt.values, PatternOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err = PatternMatch(col, meta.Strings("MAGICC"), PatternOptions{StrictMissing: true})
	assert.ErrorIs(t, err, scmerrors.ErrType)

	got, err := PatternMatch(col, meta.Strings("*"), PatternOptions{StrictMissing: true})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, got)
}

func TestPatternMatchNumeric(t *testing.T) {
	numbers := meta.NewNumberColumn("run_id", []float64{1, 2, math.NaN(), 1.0000001}, nil)

	got, err := PatternMatch(numbers, meta.Numbers(1), PatternOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true}, got)

	got, err = PatternMatch(numbers, meta.Strings("2"), PatternOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, false}, got)

	labels := stringColumn("1", "1.0", "one")
	got, err = PatternMatch(labels, meta.Numbers(1), PatternOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, got)
}

func TestPatternMatchCustomSeparator(t *testing.T) {
	col := stringColumn("a/b", "a/b/c")
	got, err := PatternMatch(col, meta.Strings("a/*"), PatternOptions{Level: ExactLevel(1), Separator: "/"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, got)
}

func BenchmarkPatternMatch(b *testing.B) {
	labels := make([]string, 0, 10000)
	for i := 0; i < 10000; i++ {
		labels = append(labels, []string{"Emissions|CO2", "Emissions|CH4", "Surface Temperature"}[i%3])
	}
	col := stringColumn(labels...)
	specs := meta.Strings("Emissions|*")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := PatternMatch(col, specs, PatternOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}
