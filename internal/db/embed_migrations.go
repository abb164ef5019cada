package db

import "embed"

// MigrationFS embeds the SQL migrations for the widget_configs and audit_logs tables.
// Applied by internal/db/migrate (cmd/migrate, and cmd/console when DATABASE_URL is set).
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
