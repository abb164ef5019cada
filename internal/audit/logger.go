// Package audit records who changed an organisation's widget, and when.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"authx-console/internal/audit/domain"
	auditrepo "authx-console/internal/audit/repository"
)

// SentinelOrgID is the org_id used for audit events that have no org.
const SentinelOrgID = "_system"

// Actions recorded for widget changes.
const (
	ActionWidgetSaved     = "widget_saved"
	ActionWidgetReset     = "widget_reset"
	ActionWidgetPublished = "widget_published"
	ActionLogoUploaded    = "logo_uploaded"
)

// ResourceWidget is the resource name of widget entries.
const ResourceWidget = "widget"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event. LogEvent is best-effort: failures are logged and do
// not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, actor, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	nowF        func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{
		repo:        repo,
		ipExtractor: ipExtractor,
		nowF:        func() time.Time { return time.Now().UTC() },
	}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, actor, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Actor:     actor,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.nowF(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
