package database

import (
	"context"
	"fmt"
	"time"

	"github.com/socialsuit/Backend-Socialsuit/internal/audit"
)

// AuditLogRepository persists security events to the security_audit_log table.
type AuditLogRepository struct {
	db *DB
}

// NewAuditLogRepository creates a new audit log repository.
func NewAuditLogRepository(db *DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

var _ audit.EventStore = (*AuditLogRepository)(nil)

// InsertEvent writes one security event. Inserts are idempotent on the event
// ID so a retried write never duplicates a row.
func (r *AuditLogRepository) InsertEvent(ctx context.Context, e audit.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO security_audit_log (id, kind, identity, method, path, reason, retry_after_seconds, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Kind, e.Identity, e.Method, e.Path, e.Reason, e.RetryAfter, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// RecentEvents returns the newest events, capped at limit. Used by the ops
// CLI to inspect what the pipeline has been denying.
func (r *AuditLogRepository) RecentEvents(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, identity, method, path, reason, retry_after_seconds, occurred_at
		FROM security_audit_log
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query security events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.Identity, &e.Method, &e.Path, &e.Reason, &e.RetryAfter, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan security event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security events: %w", err)
	}
	return events, nil
}

// PurgeBefore deletes events older than cutoff and reports how many rows went.
func (r *AuditLogRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM security_audit_log WHERE occurred_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge security events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge security events: %w", err)
	}
	return n, nil
}
