package common_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/scmframe/internal/common"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int64
	}{
		{"int", 2010, 2010},
		{"int8", int8(-3), -3},
		{"int32", int32(42), 42},
		{"uint16", uint16(7), 7},
		{"uint64", uint64(9), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := common.ToInt64(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	for _, bad := range []any{2010.0, "2010", true, nil, uint64(math.MaxUint64)} {
		_, err := common.ToInt64(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestToFloat64(t *testing.T) {
	got, err := common.ToFloat64(float32(1.5))
	require.NoError(t, err)
	assert.Equal(t, 1.5, got)

	got, err = common.ToFloat64(3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = common.ToFloat64(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, float64(math.MaxUint64), got)

	_, err = common.ToFloat64("1")
	assert.Error(t, err)
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, common.IsNumericType(1.5))
	assert.True(t, common.IsNumericType(uint8(1)))
	assert.False(t, common.IsNumericType("1"))

	assert.True(t, common.IsIntegerType(int64(1)))
	assert.False(t, common.IsIntegerType(1.0))

	assert.Equal(t, "float64", common.GetTypeName(1.0))
	assert.Equal(t, "[]string", common.GetTypeName([]string{}))
	assert.Equal(t, "nil", common.GetTypeName(nil))
}

func TestSliceConversions(t *testing.T) {
	assert.Equal(t, []int{2000, 2010}, common.Ints([]int64{2000, 2010}))
	assert.Equal(t, []int{-1, 7}, common.Ints([]int8{-1, 7}))
	assert.Equal(t, []float64{1, 2.5}, common.Float64s([]float32{1, 2.5}))
	assert.Equal(t, []float64{3}, common.Float64s([]uint16{3}))
	assert.Empty(t, common.Float64s([]int(nil)))
}
