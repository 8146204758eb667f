package scmframe

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable is anything holding Arrow memory: metadata columns and the
// records exported by Run.MetaRecord and Series.Record.
//
// Always call Release when done, preferably with defer:
//
//	rec := r.MetaRecord()
//	defer rec.Release()
type Releasable interface {
	Release()
}

// MemoryManager tracks exported Arrow resources and releases them in bulk.
// It is safe for concurrent use.
//
//	err := scmframe.WithMemoryManager(mem, func(m *scmframe.MemoryManager) error {
//		for _, s := range stats {
//			rec, err := m.SeriesRecord(s)
//			if err != nil {
//				return err
//			}
//			write(rec)
//		}
//		return nil
//	})
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex
}

// NewMemoryManager creates a manager exporting with allocator, the Go
// allocator when nil
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	if allocator == nil {
		allocator = memory.NewGoAllocator()
	}
	return &MemoryManager{allocator: allocator}
}

// Allocator returns the allocator used for exports
func (m *MemoryManager) Allocator() memory.Allocator { return m.allocator }

// Track adds a resource to be released by ReleaseAll
func (m *MemoryManager) Track(resource Releasable) {
	if resource == nil {
		return
	}
	m.mu.Lock()
	m.resources = append(m.resources, resource)
	m.mu.Unlock()
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases every tracked resource, newest first
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.resources) - 1; i >= 0; i-- {
		m.resources[i].Release()
	}
	m.resources = m.resources[:0]
}

// MetaRecord exports the metadata of r and tracks the record
func (m *MemoryManager) MetaRecord(r *Run) arrow.Record {
	rec := r.MetaRecord()
	m.Track(rec)
	return rec
}

// SeriesRecord exports s with the manager's allocator and tracks the record
func (m *MemoryManager) SeriesRecord(s *Series) (arrow.Record, error) {
	rec, err := s.Record(m.allocator)
	if err != nil {
		return nil, err
	}
	m.Track(rec)
	return rec, nil
}

// WithMemoryManager runs fn with a manager and releases everything it
// tracked afterwards
func WithMemoryManager(allocator memory.Allocator, fn func(*MemoryManager) error) error {
	manager := NewMemoryManager(allocator)
	defer manager.ReleaseAll()
	return fn(manager)
}

// WithRecord exports a record, runs fn with it and releases it
func WithRecord(export func() (arrow.Record, error), fn func(arrow.Record) error) error {
	rec, err := export()
	if err != nil {
		return err
	}
	defer rec.Release()
	return fn(rec)
}
