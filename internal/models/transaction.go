package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionTypeTransfer   = "transfer"
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
)

// Transaction is an append-only record of a balance-affecting event.
// A transfer has both sides set, a deposit only the recipient,
// a withdrawal only the sender. Rows are never updated after creation.
type Transaction struct {
	ID              uuid.UUID
	CreatedAt       time.Time
	Type            string
	Amount          decimal.Decimal
	SenderID        *uuid.UUID
	RecipientID     *uuid.UUID
	Status          string
	Description     string
	ClientRequestID *string
}
