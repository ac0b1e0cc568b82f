package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bryanwahyu/medverify/internal/domain/reports"
	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// Repository is the in-process record store, used when no database is
// configured and as the backing store in tests. Records are copied on the way
// in and out so callers cannot mutate shared state.
type Repository struct {
	mu   sync.RWMutex
	recs map[string]*reports.Record
}

func NewRepository() *Repository {
	return &Repository{recs: map[string]*reports.Record{}}
}

func key(tenantID string, id verification.ExchangeID) string {
	return tenantID + "/" + string(id)
}

func (r *Repository) Save(_ context.Context, rec *reports.Record) error {
	cp := *rec
	r.mu.Lock()
	r.recs[key(rec.TenantID, rec.ExchangeID)] = &cp
	r.mu.Unlock()
	return nil
}

func (r *Repository) Find(_ context.Context, tenantID string, id verification.ExchangeID) (*reports.Record, error) {
	r.mu.RLock()
	rec, ok := r.recs[key(tenantID, id)]
	r.mu.RUnlock()
	if !ok {
		return nil, reports.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *Repository) Latest(_ context.Context, tenantID string, limit int) ([]*reports.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	var out []*reports.Record
	for _, rec := range r.recs {
		if rec.TenantID != tenantID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
