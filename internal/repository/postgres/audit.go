package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acmepay/walletd/internal/models"
)

type AuditRepo struct {
	DB DBTX
}

const createEntry = `-- name: CreateAuditEntry
INSERT INTO audit_entries (id, created_at, admin_id, action, target_user_id, detail, remote_addr)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, admin_id, action, target_user_id, detail, remote_addr
`

func (r *AuditRepo) CreateEntry(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	rows, _ := r.DB.Query(ctx, createEntry,
		entry.ID, entry.CreatedAt, entry.AdminID, entry.Action, entry.TargetUserID, entry.Detail, entry.RemoteAddr)
	created, err := pgx.CollectOneRow(rows, rowToAuditEntry)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listEntries = `-- name: ListAuditEntries
SELECT id, created_at, admin_id, action, target_user_id, detail, remote_addr
FROM audit_entries
ORDER BY created_at DESC
LIMIT $1
`

func (r *AuditRepo) ListEntries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	rows, _ := r.DB.Query(ctx, listEntries, limit)
	entries, err := pgx.CollectRows(rows, rowToAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

func rowToAuditEntry(row pgx.CollectableRow) (models.AuditEntry, error) {
	var e models.AuditEntry
	err := row.Scan(&e.ID, &e.CreatedAt, &e.AdminID, &e.Action, &e.TargetUserID, &e.Detail, &e.RemoteAddr)
	return e, err
}
