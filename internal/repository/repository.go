package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with the given role
	// If user with email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, hashedPassword string, role string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token and mark it used in one step
	// If the token is already used, must not overwrite the existing 'usedAt'
	// and has to return apperrors.ErrRefreshTokenIsUsed
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Wallet repository interface
// Balance values are written only from inside the ledger service transaction
type WalletRepo interface {
	// Create zero-balance wallet for user
	CreateWallet(ctx context.Context, userID uuid.UUID, currency string) (models.Wallet, error)

	// Get wallet by owning user
	// If wallet not found must return apperrors.ErrWalletNotFound
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)

	// Lock and return the wallets of the given users, ordered and locked by
	// wallet id so concurrent transfers acquire row locks in the same order
	LockWallets(ctx context.Context, userIDs ...uuid.UUID) ([]models.Wallet, error)

	// Apply signed delta to wallet balance and return the updated wallet
	// The wallets CHECK constraint is the last line of defense against
	// negative balances; callers are expected to verify funds under lock first
	AddToBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (models.Wallet, error)

	// Set the administrative transfer kill-switch
	SetTransfersDisabled(ctx context.Context, userID uuid.UUID, disabled bool) (models.Wallet, error)
}

// Transaction repository interface
type TransactionRepo interface {
	// Create transaction record
	// If transaction with same non-empty client request id exists already
	// has to return apperrors.ErrDuplicateRequest
	CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error)

	// List transactions the user participates in (either side), newest first
	ListTransactions(ctx context.Context, userID uuid.UUID, types []string) ([]models.Transaction, error)
}

// WithdrawalRequest repository interface
type WithdrawalRepo interface {
	CreateRequest(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error)

	// If request not found must return apperrors.ErrRequestNotFound
	GetRequest(ctx context.Context, requestID uuid.UUID) (models.WithdrawalRequest, error)

	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status string) ([]models.WithdrawalRequest, error)

	// Set terminal status on a pending request
	// Must be conditional on the current status being pending: a request
	// already reviewed has to return apperrors.ErrRequestAlreadyReviewed
	// and must not be overwritten
	SetReviewed(ctx context.Context, requestID uuid.UUID, status string, reviewerID uuid.UUID, reviewedAt time.Time) (models.WithdrawalRequest, error)
}

// Audit log repository interface, append-only
type AuditRepo interface {
	CreateEntry(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)
	ListEntries(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// Storage combines every repository and runs closures in db transactions
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Wallet() WalletRepo
	Transaction() TransactionRepo
	Withdrawal() WithdrawalRepo
	Audit() AuditRepo

	// Run fn with a Storage bound to a single db transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
