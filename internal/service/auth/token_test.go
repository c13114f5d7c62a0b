package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/models"
	"github.com/acmepay/walletd/internal/repository/postgres"
	"github.com/acmepay/walletd/internal/testutil"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withManager := func(t *testing.T, fn func(manager *TokenManager, user models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			user, err := storage.User().CreateUser(t.Context(), "user@example.com", "hash", models.RoleUser)
			require.NoError(t, err)

			manager, err := NewTokenManager(TokenManagerConfig{SecretKey: "test-secret-key"}, storage.Refresh())
			require.NoError(t, err, "token manager should be created without errors")

			fn(manager, user)
		})
	}

	t.Run("requires secret key", func(t *testing.T) {
		_, err := NewTokenManager(TokenManagerConfig{}, nil)

		require.Error(t, err, "empty secret key should be rejected")
	})

	t.Run("generate pair ok", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			pair, err := manager.GeneratePair(t.Context(), user)

			require.NoError(t, err)
			assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
			assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second, "access token should live for default TTL")
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second, "refresh token should live for default TTL")
		})
	})

	t.Run("access token has correct claims", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			pair, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			token, err := jwt.ParseWithClaims(pair.Access.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
				return []byte("test-secret-key"), nil
			})
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")

			claims, ok := token.Claims.(*AccessTokenClaims)
			require.True(t, ok, "claims should be of type AccessTokenClaims")
			assert.Equal(t, user.ID, claims.UserID, "user ID in token should match")
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second, "expires at should be 15 minutes from now")
		})
	})

	t.Run("several tokens different", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			pair1, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			pair2, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
			assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
		})
	})

	t.Run("parse access ok", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			pair, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			userID, err := manager.ParseAccess(t.Context(), pair.Access.Value)

			require.NoError(t, err)
			require.Equal(t, user.ID, userID)
		})
	})

	t.Run("parse access with wrong key", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			pair, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			other, err := NewTokenManager(TokenManagerConfig{SecretKey: "other-key"}, manager.refreshRepo)
			require.NoError(t, err)

			_, err = other.ParseAccess(t.Context(), pair.Access.Value)

			require.Error(t, err, "token signed with another key should not validate")
		})
	})

	t.Run("use refresh ok", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			pair, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			token, err := manager.UseRefresh(t.Context(), pair.Refresh.Value)

			require.NoError(t, err)
			require.Equal(t, user.ID, token.UserID)
		})
	})

	t.Run("use refresh twice fails", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			pair, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			_, err = manager.UseRefresh(t.Context(), pair.Refresh.Value)
			require.NoError(t, err, "first use should be ok")

			_, err = manager.UseRefresh(t.Context(), pair.Refresh.Value)

			require.Error(t, err, "refresh token should be one-shot")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenIsUsed, "should return well known error")
		})
	})

	t.Run("use unknown refresh fails", func(t *testing.T) {
		withManager(t, func(manager *TokenManager, user models.User) {
			_, err := manager.UseRefresh(t.Context(), uuid.NewString())

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "should return well known error")
		})
	})

	t.Run("use expired refresh fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			user, err := storage.User().CreateUser(t.Context(), "user@example.com", "hash", models.RoleUser)
			require.NoError(t, err)

			manager, err := NewTokenManager(TokenManagerConfig{
				SecretKey:  "test-secret-key",
				RefreshTTL: -time.Hour, // Issued already expired
			}, storage.Refresh())
			require.NoError(t, err)

			pair, err := manager.GeneratePair(t.Context(), user)
			require.NoError(t, err)

			_, err = manager.UseRefresh(t.Context(), pair.Refresh.Value)

			require.Error(t, err, "expired refresh token should be rejected")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired, "should return well known error")
		})
	})
}
