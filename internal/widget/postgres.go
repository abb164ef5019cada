package widget

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	getDraft = `SELECT org_id, config, version, published_at, updated_at
FROM widget_configs
WHERE org_id = $1`

	upsertDraft = `INSERT INTO widget_configs (org_id, config, version, updated_at)
VALUES ($1, $2, 1, $3)
ON CONFLICT (org_id) DO UPDATE
SET config = EXCLUDED.config, version = widget_configs.version + 1, updated_at = EXCLUDED.updated_at
RETURNING org_id, config, version, published_at, updated_at`

	markPublished = `UPDATE widget_configs SET published_at = $2 WHERE org_id = $1`
)

// PostgresRepository stores drafts as JSONB in the widget_configs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a repository backed by db (opened with internal/db.Open).
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, orgID string) (*Draft, error) {
	d, err := scanDraft(r.db.QueryRowContext(ctx, getDraft, orgID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *PostgresRepository) Upsert(ctx context.Context, orgID string, cfg Config, at time.Time) (*Draft, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("widget: encode config: %w", err)
	}
	return scanDraft(r.db.QueryRowContext(ctx, upsertDraft, orgID, raw, at))
}

func (r *PostgresRepository) MarkPublished(ctx context.Context, orgID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, markPublished, orgID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDraft(row *sql.Row) (*Draft, error) {
	var (
		d         Draft
		raw       []byte
		published sql.NullTime
	)
	if err := row.Scan(&d.OrgID, &raw, &d.Version, &published, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &d.Config); err != nil {
		return nil, fmt.Errorf("widget: decode config for %s: %w", d.OrgID, err)
	}
	if published.Valid {
		t := published.Time
		d.PublishedAt = &t
	}
	return &d, nil
}
