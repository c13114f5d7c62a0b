package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/acmepay/walletd/internal/handlers"
	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/repository"
	"github.com/acmepay/walletd/internal/repository/postgres"
	"github.com/acmepay/walletd/internal/service/auth"
	"github.com/acmepay/walletd/internal/service/ledger"
	"github.com/acmepay/walletd/internal/service/withdrawal"
	"github.com/acmepay/walletd/internal/testutil"
)

type Services struct {
	Storage           repository.Storage
	AuthService       *auth.AuthService
	LedgerService     *ledger.LedgerService
	WithdrawalService *withdrawal.WithdrawalService
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		log := logger.NewNoOpLogger()

		// Initialize repositories over the test transaction
		storage := postgres.NewStorage(tx)

		// Initialize services
		as, err := auth.NewService(auth.Config{SecretKey: "test-secret", Currency: "USD"}, storage)
		require.NoError(t, err, "auth service starting error")

		ls := ledger.NewService(ledger.Config{}, storage, nil, log)
		ws := withdrawal.NewService(storage, nil, nil, log)

		// Complete all together as router
		router := handlers.NewRouter(as, ls, ws, nil, log)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:           storage,
			AuthService:       as,
			LedgerService:     ls,
			WithdrawalService: ws,
		})
	})
}
