package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/models"
)

type WithdrawalRepo struct {
	DB DBTX
}

const createRequest = `-- name: CreateWithdrawalRequest
INSERT INTO withdrawal_requests (id, user_id, amount, payout_details, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, amount, payout_details, status, created_at, updated_at, reviewed_by, reviewed_at
`

func (r *WithdrawalRepo) CreateRequest(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, createRequest,
		req.ID, req.UserID, req.Amount, req.PayoutDetails, req.Status, req.CreatedAt, req.UpdatedAt)
	created, err := pgx.CollectOneRow(rows, rowToWithdrawalRequest)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getRequest = `-- name: GetWithdrawalRequest
SELECT id, user_id, amount, payout_details, status, created_at, updated_at, reviewed_by, reviewed_at
FROM withdrawal_requests
WHERE id = $1
`

func (r *WithdrawalRepo) GetRequest(ctx context.Context, requestID uuid.UUID) (models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, getRequest, requestID)
	req, err := pgx.CollectOneRow(rows, rowToWithdrawalRequest)

	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, pgx.ErrNoRows):
		return req, apperrors.ErrRequestNotFound
	default:
		return req, fmt.Errorf("db error: %w", err)
	}
}

const listForUser = `-- name: ListWithdrawalRequestsForUser
SELECT id, user_id, amount, payout_details, status, created_at, updated_at, reviewed_by, reviewed_at
FROM withdrawal_requests
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *WithdrawalRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, listForUser, userID)
	requests, err := pgx.CollectRows(rows, rowToWithdrawalRequest)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return requests, nil
}

const listByStatus = `-- name: ListWithdrawalRequestsByStatus
SELECT id, user_id, amount, payout_details, status, created_at, updated_at, reviewed_by, reviewed_at
FROM withdrawal_requests
WHERE status = $1
ORDER BY created_at
`

func (r *WithdrawalRepo) ListByStatus(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, listByStatus, status)
	requests, err := pgx.CollectRows(rows, rowToWithdrawalRequest)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return requests, nil
}

const setReviewed = `-- name: SetWithdrawalRequestReviewed
UPDATE withdrawal_requests
SET status = $2, reviewed_by = $3, reviewed_at = $4, updated_at = $4
WHERE id = $1 AND status = 'pending'
RETURNING id, user_id, amount, payout_details, status, created_at, updated_at, reviewed_by, reviewed_at
`

// Transition a pending request to a terminal status
// The status condition makes the update a no-op for already reviewed
// requests, so a terminal state is never silently overwritten
func (r *WithdrawalRepo) SetReviewed(ctx context.Context, requestID uuid.UUID, status string, reviewerID uuid.UUID, reviewedAt time.Time) (models.WithdrawalRequest, error) {
	rows, _ := r.DB.Query(ctx, setReviewed, requestID, status, reviewerID, reviewedAt)
	req, err := pgx.CollectOneRow(rows, rowToWithdrawalRequest)

	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either the request doesn't exist or it's not pending anymore
		existing, getErr := r.GetRequest(ctx, requestID)
		if getErr != nil {
			return req, getErr
		}
		return existing, apperrors.ErrRequestAlreadyReviewed
	default:
		return req, fmt.Errorf("db error: %w", err)
	}
}

func rowToWithdrawalRequest(row pgx.CollectableRow) (models.WithdrawalRequest, error) {
	var r models.WithdrawalRequest
	err := row.Scan(&r.ID, &r.UserID, &r.Amount, &r.PayoutDetails, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.ReviewedBy, &r.ReviewedAt)
	return r, err
}
