package processing

import (
	"bytes"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scmerrors "github.com/paveg/scmframe/internal/errors"
	"github.com/paveg/scmframe/internal/meta"
	"github.com/paveg/scmframe/internal/testutil"
)

func testSeries(t *testing.T, values ...meta.Value) *Series {
	t.Helper()
	scenarios := []string{"ssp126", "ssp245", "ssp585"}[:len(values)]
	index := []*meta.Column{meta.NewStringColumn("scenario", scenarios, memory.DefaultAllocator)}
	return newSeries("stat", index, values)
}

func TestFormatThreshold(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2, "2.0"},
		{1.5, "1.5"},
		{0.05, "0.05"},
		{-1, "-1.0"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatThreshold(tt.in))
	}
	assert.Equal(t, "2.0 exceedance probability", nameFrom(defaultExceedanceName, 2))
}

func TestSeriesRecord(t *testing.T) {
	ctx := testutil.SetupMemoryTest(t)
	defer ctx.Release()
	mem := ctx.Allocator

	s := testSeries(t, meta.Number(1.5), meta.Missing(), meta.Number(3))
	rec, err := s.Record(mem)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumCols())
	assert.Equal(t, "scenario", rec.ColumnName(0))
	assert.Equal(t, "stat", rec.ColumnName(1))
	assert.Equal(t, arrow.FLOAT64, rec.Column(1).DataType().ID())
	assert.Equal(t, 1, rec.Column(1).NullN())

	categories := testSeries(t, meta.String(CategoryBelow15), meta.String(CategoryAbove2))
	rec2, err := categories.Record(mem)
	require.NoError(t, err)
	defer rec2.Release()
	assert.Equal(t, arrow.STRING, rec2.Column(1).DataType().ID())

	categories.Name = "scenario"
	_, err = categories.Record(mem)
	assert.ErrorIs(t, err, scmerrors.ErrValidation)
}

func TestSeriesLookup(t *testing.T) {
	s := testSeries(t, meta.Number(1), meta.Number(2))

	v, ok := s.Lookup(map[string]any{"scenario": "ssp245"})
	require.True(t, ok)
	assert.Equal(t, meta.Number(2), v)

	_, ok = s.Lookup(map[string]any{"scenario": "ssp370"})
	assert.False(t, ok)
	_, ok = s.Lookup(map[string]any{"model": "x"})
	assert.False(t, ok)
}

func TestSeriesWriteTable(t *testing.T) {
	var buf bytes.Buffer
	testSeries(t, meta.Number(0.123456789), meta.Missing()).WriteTable(&buf)

	out := buf.String()
	assert.Contains(t, out, "SCENARIO")
	assert.Contains(t, out, "0.123457")
	assert.Contains(t, out, "NaN")
}
