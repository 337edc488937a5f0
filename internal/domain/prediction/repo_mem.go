package prediction

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps prediction records in memory. It backs deployments
// that run without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	// The Postgres store stamps created_at with a column default; here the
	// store itself is the clock.
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.records = append(r.records, &cp)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]*Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.records, limit, offset)
}

func (r *MemoryRepository) ListByDisease(_ context.Context, disease string, limit, offset int) ([]*Record, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Record
	for _, rec := range r.records {
		if rec.Disease == disease {
			matched = append(matched, rec)
		}
	}
	return page(matched, limit, offset)
}

// page slices records newest first. Records are appended in arrival order, so
// the view is built back to front.
func page(records []*Record, limit, offset int) ([]*Record, int, error) {
	total := len(records)
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	out := make([]*Record, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		cp := *records[i]
		out = append(out, &cp)
	}
	return out, total, nil
}
