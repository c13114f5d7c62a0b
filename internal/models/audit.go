package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionBalanceAdjust    = "balance_adjust"
	AuditActionWithdrawalReview = "withdrawal_review"
	AuditActionTransferToggle   = "transfer_toggle"
)

// AuditEntry records a privileged administrative action.
// Entries are append-only and never mutated or deleted.
type AuditEntry struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	AdminID      uuid.UUID
	Action       string
	TargetUserID *uuid.UUID
	Detail       map[string]any
	RemoteAddr   *string
}
