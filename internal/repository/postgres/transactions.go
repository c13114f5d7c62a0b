package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, created_at, type, amount, sender_id, recipient_id, status, description, client_request_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at, type, amount, sender_id, recipient_id, status, description, client_request_id
`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		tr.ID, tr.CreatedAt, tr.Type, tr.Amount, tr.SenderID, tr.RecipientID, tr.Status, tr.Description, tr.ClientRequestID)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "transactions_client_request_id_key":
				return created, apperrors.ErrDuplicateRequest
			case pgErr.Code == pgerrcode.ForeignKeyViolation:
				return created, apperrors.ErrUserNotFound
			}
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listTransactions = `-- name: ListTransactions
SELECT id, created_at, type, amount, sender_id, recipient_id, status, description, client_request_id
FROM transactions
WHERE (sender_id = $1 OR recipient_id = $1)
	AND (cardinality($2::text[]) = 0 OR type = ANY($2))
ORDER BY created_at DESC
`

func (r *TransactionRepo) ListTransactions(ctx context.Context, userID uuid.UUID, types []string) ([]models.Transaction, error) {
	if types == nil {
		types = []string{}
	}

	rows, _ := r.DB.Query(ctx, listTransactions, userID, types)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreatedAt, &t.Type, &t.Amount, &t.SenderID, &t.RecipientID, &t.Status, &t.Description, &t.ClientRequestID)
	return t, err
}
