package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is the per-user balance record.
// Balance is mutated only through the ledger service, never directly.
type Wallet struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Balance           decimal.Decimal
	Currency          string
	TransfersDisabled bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
