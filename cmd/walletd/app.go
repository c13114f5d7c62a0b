package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/db"
	"github.com/acmepay/walletd/internal/handlers"
	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/metrics"
	"github.com/acmepay/walletd/internal/repository/postgres"
	"github.com/acmepay/walletd/internal/service/auth"
	"github.com/acmepay/walletd/internal/service/ledger"
	"github.com/acmepay/walletd/internal/service/notifier"
	"github.com/acmepay/walletd/internal/service/withdrawal"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger   logger.Logger
	notifier *notifier.Dispatcher
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	maxAmount, err := decimal.NewFromString(c.MaxTransferAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid max transfer amount %q: %w", c.MaxTransferAmount, err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	m := metrics.New()

	// Initialize services
	authService, err := auth.NewService(auth.Config{SecretKey: c.SecretKey, Currency: c.Currency}, storage)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	dispatcher := notifier.New(notifier.NewLogSink(log), log)
	ledgerService := ledger.NewService(ledger.Config{MaxAmount: maxAmount}, storage, m, log)
	withdrawalService := withdrawal.NewService(storage, dispatcher, m, log)

	mux := handlers.NewRouter(
		authService,
		ledgerService,
		withdrawalService,
		m,
		log,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     log,
		notifier:   dispatcher,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	// Start notification workers, they stop with the server context
	notifierStopped := s.notifier.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-notifierStopped

	return err
}
