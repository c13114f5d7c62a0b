package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// WithdrawalRequest is a user request to pay funds out to an external
// instrument. Lifecycle: pending -> approved | rejected, terminal states
// only ever set by an administrator review.
type WithdrawalRequest struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	PayoutDetails string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ReviewedBy    *uuid.UUID
	ReviewedAt    *time.Time
}

func (r WithdrawalRequest) IsTerminal() bool {
	return r.Status != WithdrawalStatusPending
}
