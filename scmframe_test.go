package scmframe_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/scmframe"
)

func records() []scmframe.Record {
	return []scmframe.Record{
		{Meta: map[string]any{"scenario": "ssp126", "variable": "Surface Air Temperature Change", "unit": "K"},
			Values: []float64{0.8, 1.4, 1.6, 1.4}},
		{Meta: map[string]any{"scenario": "ssp585", "variable": "Surface Air Temperature Change", "unit": "K"},
			Values: []float64{0.8, 1.9, 3.1, 4.4}},
		{Meta: map[string]any{"scenario": "ssp585", "variable": "Atmospheric Concentrations|CO2", "unit": "ppm"},
			Values: []float64{370, 560, 800, 1100}},
	}
}

func TestEndToEnd(t *testing.T) {
	r, err := scmframe.FromRecords(records(), scmframe.Years(2000, 2050, 2075, 2100))
	require.NoError(t, err)

	temps, err := r.Filter(scmframe.Filter{Meta: map[string]any{"variable": "Surface*"}})
	require.NoError(t, err)
	require.Equal(t, 2, temps.Len())

	annual, err := temps.Interpolate(scmframe.Years(2000, 2025, 2050, 2075, 2100), scmframe.Linear,
		scmframe.ExtrapolateNone)
	require.NoError(t, err)
	row, err := annual.Row(1)
	require.NoError(t, err)
	assert.InDelta(t, 1.35, row[1], 1e-3)

	crossing, err := scmframe.CalculateCrossingTimes(annual, 1.5, true)
	require.NoError(t, err)
	y, ok := crossing.Value(0).Float()
	require.True(t, ok)
	assert.Equal(t, 2075.0, y)

	peaks, err := scmframe.CalculatePeak(annual, "")
	require.NoError(t, err)
	p, _ := peaks.Value(1).Float()
	assert.Equal(t, 4.4, p)

	mK, err := temps.ConvertUnit("mK", scmframe.NewUnitRegistry())
	require.NoError(t, err)
	mrow, err := mK.Row(0)
	require.NoError(t, err)
	assert.InDelta(t, 800, mrow[0], 1e-9)
}

func TestMatchPatterns(t *testing.T) {
	labels := []string{"Emissions", "Emissions|CO2", "Emissions|CO2|Fossil", "Temperature"}

	mask, err := scmframe.MatchPatterns(labels, []string{"Emissions|*"}, "", false)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, mask)

	mask, err = scmframe.MatchPatterns(labels, []string{"Emissions|*"}, "1", false)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, false}, mask)

	mask, err = scmframe.MatchPatterns(labels, []string{"^Temp.*$"}, "", true)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, true}, mask)

	_, err = scmframe.MatchPatterns(labels, []string{"*"}, "x", false)
	assert.Error(t, err)
}

func TestGenerateRange(t *testing.T) {
	start, err := scmframe.NewDateTime(scmframe.NoLeap, 2000, 1, 1, 0, 0, 0)
	require.NoError(t, err)
	end, err := scmframe.NewDateTime(scmframe.NoLeap, 2003, 1, 1, 0, 0, 0)
	require.NoError(t, err)

	offset, err := scmframe.ParseOffset("AS")
	require.NoError(t, err)
	dts, err := scmframe.GenerateRange(start, end, offset)
	require.NoError(t, err)
	assert.Len(t, dts, 4)

	cal, err := scmframe.ParseCalendar("noleap")
	require.NoError(t, err)
	assert.Equal(t, scmframe.NoLeap, cal)
}

func TestSummaryFacade(t *testing.T) {
	var recs []scmframe.Record
	for m := 0; m < 3; m++ {
		recs = append(recs, scmframe.Record{
			Meta: map[string]any{
				"scenario": "ssp119", "ensemble_member": m,
				"variable": "Surface Air Temperature Change", "unit": "K",
			},
			Values: []float64{0.5, 1.2 + 0.1*float64(m), 1.1},
		})
	}
	r, err := scmframe.FromRecords(recs, scmframe.Years(2000, 2050, 2100))
	require.NoError(t, err)

	s, err := scmframe.CalculateSummaryStats(r, []string{"scenario"}, scmframe.DefaultSummaryOptions())
	require.NoError(t, err)
	v, ok := s.Lookup(map[string]any{"scenario": "ssp119", "unit": ""}, "SR1.5 category")
	require.True(t, ok)
	assert.Equal(t, "Below 1.5C", v.Str())

	var buf bytes.Buffer
	scmframe.WriteSummary(&buf, s)
	assert.Contains(t, buf.String(), "SR1.5 category")
}

func ExampleCalculateCrossingTimes() {
	r, err := scmframe.FromRecords(records()[:2], scmframe.Years(2000, 2050, 2075, 2100))
	if err != nil {
		panic(err)
	}
	crossing, err := scmframe.CalculateCrossingTimes(r, 1.5, true)
	if err != nil {
		panic(err)
	}
	for i := 0; i < crossing.Len(); i++ {
		fmt.Println(crossing.Key(i)["scenario"].Str(), crossing.Value(i))
	}
	// Output:
	// ssp126 2075
	// ssp585 2050
}
