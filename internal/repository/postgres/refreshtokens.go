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

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) error {
	rows, _ := r.DB.Query(ctx, saveToken, token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getAndMarkUsed = `-- name: GetAndMarkUsed
UPDATE refresh_tokens
SET used_at = COALESCE(used_at, $2)
WHERE token = $1
RETURNING id, user_id, created_at, expires_at, used_at
`

// Return the token and mark it used in a single statement
// COALESCE keeps the original used_at, so a replayed token is detected
// by the returned timestamp differing from the one we just supplied
func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	now := time.Now().Truncate(time.Microsecond) // postgres keeps microseconds only

	rows, _ := r.DB.Query(ctx, getAndMarkUsed, tokenString, now)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.RefreshToken, error) {
		t := models.RefreshToken{Token: tokenString}
		err := row.Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
		return t, err
	})

	switch {
	case err == nil && token.UsedAt != nil && token.UsedAt.Equal(now):
		return token, nil
	case err == nil:
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenIsUsed)
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}
