package repository

import (
	"context"
	"database/sql"

	"authx-console/internal/audit/domain"
)

const (
	insertAuditLog = `INSERT INTO audit_logs (id, org_id, actor, action, resource, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listAuditLogsByOrg = `SELECT id, org_id, actor, action, resource, ip, metadata, created_at
FROM audit_logs
WHERE org_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`
)

// PostgresRepository stores audit logs in the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	actor := sql.NullString{String: a.Actor, Valid: a.Actor != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx, insertAuditLog,
		a.ID, a.OrgID, actor, a.Action, a.Resource, a.IP, meta, a.CreatedAt)
	return err
}

// ListByOrg returns audit logs for orgID, paginated by limit and offset.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, listAuditLogsByOrg, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a     domain.AuditLog
			actor sql.NullString
			meta  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OrgID, &actor, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Actor = actor.String
		a.Metadata = meta.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
