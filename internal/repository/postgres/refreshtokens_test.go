package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/models"
	"github.com/acmepay/walletd/internal/repository"
	"github.com/acmepay/walletd/internal/testutil"
)

func TestRefreshTokens(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(outerTx, t, func(innerTx pgx.Tx) {
			storage := NewStorage(innerTx)
			fn(innerTx, storage)
		})
	}

	t.Run("Save", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "user@example.com", "hash", models.RoleUser)
			require.NoError(t, err)

			err = storage.Refresh().Save(t.Context(), models.RefreshToken{
				ID:        uuid.New(),
				UserID:    user.ID,
				Token:     "some-refresh-token",
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(24 * time.Hour),
			})

			require.NoError(t, err, "token has to be saved ok")
		})
	})

	t.Run("GetAndMarkUsed", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user, err := storage.User().CreateUser(t.Context(), "user@example.com", "hash", models.RoleUser)
			require.NoError(t, err)

			t.Run("use token once", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					err := storage.Refresh().Save(t.Context(), models.RefreshToken{
						ID:        uuid.New(),
						UserID:    user.ID,
						Token:     "fresh-token",
						CreatedAt: time.Now(),
						ExpiresAt: time.Now().Add(24 * time.Hour),
					})
					require.NoError(t, err)

					token, err := storage.Refresh().GetAndMarkUsed(t.Context(), "fresh-token")

					require.NoError(t, err, "using fresh token should not fail")
					require.Equal(t, user.ID, token.UserID)
					require.NotNil(t, token.UsedAt, "token should be marked used")
				})
			})

			t.Run("use token twice", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					err := storage.Refresh().Save(t.Context(), models.RefreshToken{
						ID:        uuid.New(),
						UserID:    user.ID,
						Token:     "replayed-token",
						CreatedAt: time.Now(),
						ExpiresAt: time.Now().Add(24 * time.Hour),
					})
					require.NoError(t, err)

					_, err = storage.Refresh().GetAndMarkUsed(t.Context(), "replayed-token")
					require.NoError(t, err, "first use should be ok")

					_, err = storage.Refresh().GetAndMarkUsed(t.Context(), "replayed-token")

					require.Error(t, err, "second use should fail")
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed, "should return well known error")
				})
			})

			t.Run("use unknown token", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Refresh().GetAndMarkUsed(t.Context(), "never-saved-token")

					require.Error(t, err, "unknown token should fail")
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "should return well known error")
				})
			})
		})
	})
}
