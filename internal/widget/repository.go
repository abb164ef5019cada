package widget

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Repository.Get when the organisation has no saved draft.
var ErrNotFound = errors.New("widget: no draft for organisation")

// Draft is the saved widget configuration of one organisation.
type Draft struct {
	OrgID  string
	Config Config
	// Version increases by one on every Upsert.
	Version     int64
	PublishedAt *time.Time
	UpdatedAt   time.Time
}

// Repository persists widget drafts keyed by organisation id.
type Repository interface {
	Get(ctx context.Context, orgID string) (*Draft, error)
	// Upsert stores cfg for orgID and returns the stored draft with its new version.
	Upsert(ctx context.Context, orgID string, cfg Config, at time.Time) (*Draft, error)
	MarkPublished(ctx context.Context, orgID string, at time.Time) error
}

// MemoryRepository keeps drafts in process.
type MemoryRepository struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{drafts: make(map[string]*Draft)}
}

func (r *MemoryRepository) Get(ctx context.Context, orgID string) (*Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drafts[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDraft(d), nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, orgID string, cfg Config, at time.Time) (*Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[orgID]
	if !ok {
		d = &Draft{OrgID: orgID}
		r.drafts[orgID] = d
	}
	d.Config = cloneConfig(cfg)
	d.Version++
	d.UpdatedAt = at
	return copyDraft(d), nil
}

func (r *MemoryRepository) MarkPublished(ctx context.Context, orgID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[orgID]
	if !ok {
		return ErrNotFound
	}
	t := at
	d.PublishedAt = &t
	return nil
}

func copyDraft(d *Draft) *Draft {
	cp := *d
	cp.Config = cloneConfig(d.Config)
	if d.PublishedAt != nil {
		t := *d.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}

// cloneConfig copies the maps so stored drafts never alias caller state.
func cloneConfig(c Config) Config {
	if c.DevSettings.Social != nil {
		m := make(map[string]bool, len(c.DevSettings.Social))
		for k, v := range c.DevSettings.Social {
			m[k] = v
		}
		c.DevSettings.Social = m
	}
	if c.DevSettings.ClientIDs != nil {
		m := make(map[string]string, len(c.DevSettings.ClientIDs))
		for k, v := range c.DevSettings.ClientIDs {
			m[k] = v
		}
		c.DevSettings.ClientIDs = m
	}
	return c
}
