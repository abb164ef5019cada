package repository

import (
	"context"
	"sort"
	"sync"

	"authx-console/internal/audit/domain"
)

// MemoryRepository keeps audit logs in process. Used when no database is configured and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*domain.AuditLog
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Create stores a copy of a.
func (r *MemoryRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	cp := *a
	r.mu.Lock()
	r.entries = append(r.entries, &cp)
	r.mu.Unlock()
	return nil
}

// ListByOrg returns entries for orgID, newest first.
func (r *MemoryRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	r.mu.RLock()
	var matched []*domain.AuditLog
	for _, e := range r.entries {
		if e.OrgID == orgID {
			cp := *e
			matched = append(matched, &cp)
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && int(limit) < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}
