package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/handlers/middleware"
	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/metrics"
	"github.com/acmepay/walletd/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	ledgerService ledgerService,
	withdrawalService withdrawalService,
	m *metrics.Metrics,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withAdmin := func(h http.Handler) http.Handler {
		return authMiddleware(middleware.RequireAdmin(h))
	}

	apiuser := http.NewServeMux()

	apiuser.Handle("POST /register", handleRegister(authService, logger))
	apiuser.Handle("POST /login", handleLogin(authService, logger))
	apiuser.Handle("POST /refresh", handleTokenRefresh(authService, logger))

	apiuser.Handle("GET /wallet", withAuth(handleGetWallet(ledgerService, logger)))
	apiuser.Handle("GET /transactions", withAuth(handleListTransactions(ledgerService, logger)))
	apiuser.Handle("POST /transfer", withAuth(handleTransfer(ledgerService, logger)))
	apiuser.Handle("POST /withdrawals", withAuth(handleSubmitWithdrawal(withdrawalService, logger)))
	apiuser.Handle("GET /withdrawals", withAuth(handleListWithdrawals(withdrawalService, logger)))

	apiadmin := http.NewServeMux()

	apiadmin.Handle("POST /adjust", withAdmin(handleAdminAdjust(ledgerService, logger)))
	apiadmin.Handle("GET /withdrawals", withAdmin(handleAdminListWithdrawals(withdrawalService, logger)))
	apiadmin.Handle("POST /withdrawals/review", withAdmin(handleAdminReviewWithdrawal(withdrawalService, logger)))
	apiadmin.Handle("POST /wallets/toggle-transfers", withAdmin(handleAdminToggleTransfers(ledgerService, logger)))
	apiadmin.Handle("GET /audit", withAdmin(handleAdminListAudit(ledgerService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.Handle("/api/admin/", http.StripPrefix("/api/admin", apiadmin))
	root.Handle("GET /metrics", m.Handler())

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with email and password, creating the wallet alongside
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrUserNotFound if user not found or password wrong
	Login(ctx context.Context, email string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokens(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefresh(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type ledgerService interface {
	Transfer(ctx context.Context, senderID uuid.UUID, recipientEmail string, amount decimal.Decimal, description string, clientRequestID string) (models.Wallet, error)
	Adjust(ctx context.Context, targetUserID uuid.UUID, delta decimal.Decimal, reason string, actingAdminID uuid.UUID, remoteAddr string) (models.Wallet, error)
	SetTransfersDisabled(ctx context.Context, targetUserID uuid.UUID, disabled bool, actingAdminID uuid.UUID, remoteAddr string) (models.Wallet, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListAuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

type withdrawalService interface {
	Submit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, payoutDetails string) (models.WithdrawalRequest, error)
	Review(ctx context.Context, requestID uuid.UUID, decision string, reviewerID uuid.UUID, remoteAddr string) (models.WithdrawalRequest, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error)
	ListPending(ctx context.Context) ([]models.WithdrawalRequest, error)
}
