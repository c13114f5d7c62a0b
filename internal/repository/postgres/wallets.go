package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

const createWallet = `-- name: CreateWallet
INSERT INTO wallets (user_id, currency)
VALUES ($1, $2)
RETURNING id, user_id, balance, currency, transfers_disabled, created_at, updated_at
`

func (r *WalletRepo) CreateWallet(ctx context.Context, userID uuid.UUID, currency string) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, createWallet, userID, currency)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return wallet, fmt.Errorf("user wallet already exists: %w", err)
		}
		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

const getWallet = `-- name: GetWallet
SELECT id, user_id, balance, currency, transfers_disabled, created_at, updated_at
FROM wallets
WHERE user_id = $1
`

func (r *WalletRepo) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWallet, userID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const lockWallets = `-- name: LockWallets
SELECT id, user_id, balance, currency, transfers_disabled, created_at, updated_at
FROM wallets
WHERE user_id = ANY($1)
ORDER BY id
FOR UPDATE
`

// Lock wallet rows of the given users for the rest of the transaction
// Rows are locked in wallet id order so two concurrent transfers between the
// same pair can't deadlock on each other
func (r *WalletRepo) LockWallets(ctx context.Context, userIDs ...uuid.UUID) ([]models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, lockWallets, userIDs)
	wallets, err := pgx.CollectRows(rows, rowToWallet)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(wallets) != len(userIDs) {
		return nil, apperrors.ErrWalletNotFound
	}

	return wallets, nil
}

const addToBalance = `-- name: AddToBalance
UPDATE wallets
SET balance = balance + $2, updated_at = now()
WHERE user_id = $1
RETURNING id, user_id, balance, currency, transfers_disabled, created_at, updated_at
`

func (r *WalletRepo) AddToBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, addToBalance, userID, delta)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation:
			return wallet, apperrors.ErrBalanceNegative
		case errors.Is(err, pgx.ErrNoRows):
			return wallet, apperrors.ErrWalletNotFound
		default:
			return wallet, fmt.Errorf("db error: %w", err)
		}
	}

	return wallet, nil
}

const setTransfersDisabled = `-- name: SetTransfersDisabled
UPDATE wallets
SET transfers_disabled = $2, updated_at = now()
WHERE user_id = $1
RETURNING id, user_id, balance, currency, transfers_disabled, created_at, updated_at
`

func (r *WalletRepo) SetTransfersDisabled(ctx context.Context, userID uuid.UUID, disabled bool) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, setTransfersDisabled, userID, disabled)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.TransfersDisabled, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}
