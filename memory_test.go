package scmframe

import (
	"errors"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResource struct {
	released *int
}

func (c countingResource) Release() { *c.released++ }

func testRun(t *testing.T, mem memory.Allocator) *Run {
	t.Helper()
	r, err := FromRecords([]Record{
		{Meta: map[string]any{"scenario": "a", "unit": "K", "variable": "T"}, Values: []float64{1, 2}},
		{Meta: map[string]any{"scenario": "b", "unit": "K", "variable": "T"}, Values: []float64{3, 1}},
	}, Years(2000, 2010), WithAllocator(mem))
	require.NoError(t, err)
	return r
}

func TestMemoryManager(t *testing.T) {
	t.Run("track and release", func(t *testing.T) {
		var released int
		manager := NewMemoryManager(nil)
		manager.Track(countingResource{&released})
		manager.Track(countingResource{&released})
		manager.Track(nil)
		assert.Equal(t, 2, manager.Count())

		manager.ReleaseAll()
		assert.Equal(t, 2, released)
		assert.Equal(t, 0, manager.Count())
	})

	t.Run("concurrent tracking", func(t *testing.T) {
		var released int
		manager := NewMemoryManager(memory.NewGoAllocator())
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				manager.Track(countingResource{&released})
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, manager.Count())
		manager.ReleaseAll()
		assert.Equal(t, 50, released)
	})

	t.Run("exports are released", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		r := testRun(t, memory.NewGoAllocator())

		err := WithMemoryManager(mem, func(m *MemoryManager) error {
			assert.Same(t, mem, m.Allocator())
			rec := m.MetaRecord(r)
			assert.Equal(t, int64(2), rec.NumRows())

			peaks, err := CalculatePeak(r, "")
			if err != nil {
				return err
			}
			srec, err := m.SeriesRecord(peaks)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(2), srec.NumRows())
			assert.Equal(t, 2, m.Count())
			return nil
		})
		require.NoError(t, err)
		mem.AssertSize(t, 0)
	})
}

func TestWithRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	r := testRun(t, memory.NewGoAllocator())
	peaks, err := CalculatePeak(r, "")
	require.NoError(t, err)

	err = WithRecord(func() (arrow.Record, error) { return peaks.Record(mem) }, func(rec arrow.Record) error {
		assert.Equal(t, int64(4), rec.NumCols())
		return nil
	})
	require.NoError(t, err)
	mem.AssertSize(t, 0)

	sentinel := errors.New("export failed")
	err = WithRecord(func() (arrow.Record, error) { return nil, sentinel }, func(arrow.Record) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
}
