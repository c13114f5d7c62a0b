package withdrawal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/metrics"
	"github.com/acmepay/walletd/internal/models"
	"github.com/acmepay/walletd/internal/repository"
)

// Notifier delivers review decisions to the user. Delivery is best-effort:
// the service never waits for it and a failure never affects the review.
type Notifier interface {
	NotifyReviewed(req models.WithdrawalRequest)
}

type WithdrawalService struct {
	storage  repository.Storage
	notifier Notifier
	metrics  *metrics.Metrics
	logger   logger.Logger
}

func NewService(storage repository.Storage, notifier Notifier, m *metrics.Metrics, l logger.Logger) *WithdrawalService {
	return &WithdrawalService{
		storage:  storage,
		notifier: notifier,
		metrics:  m,
		logger:   l,
	}
}

// Submit creates a pending withdrawal request.
// The balance check here is advisory only: funds are NOT debited or held at
// submission time, so the real-time balance may drop below the requested
// amount before an admin reviews it. The reviewing admin re-checks by hand.
func (s *WithdrawalService) Submit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, payoutDetails string) (models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest

	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return req, apperrors.ErrAmountInvalid
	}

	wallet, err := s.storage.Wallet().GetWallet(ctx, userID)
	if err != nil {
		return req, err
	}

	if wallet.Balance.LessThan(amount) {
		return req, apperrors.ErrInsufficientFunds
	}

	now := time.Now()
	req, err = s.storage.Withdrawal().CreateRequest(ctx, models.WithdrawalRequest{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        amount,
		PayoutDetails: payoutDetails,
		Status:        models.WithdrawalStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return req, err
	}

	s.logger.Info("Withdrawal request submitted", "request_id", req.ID, "user_id", userID, "amount", amount)
	return req, nil
}

// Review transitions a pending request to approved or rejected.
// Reviewing an already terminal request fails with
// apperrors.ErrRequestAlreadyReviewed; the stored decision is never
// overwritten. Approval does not move funds: payout happens out of band.
func (s *WithdrawalService) Review(ctx context.Context, requestID uuid.UUID, decision string, reviewerID uuid.UUID, remoteAddr string) (models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest

	if decision != models.WithdrawalStatusApproved && decision != models.WithdrawalStatusRejected {
		return req, apperrors.ErrDecisionInvalid
	}

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		req, err = storage.Withdrawal().SetReviewed(ctx, requestID, decision, reviewerID, time.Now())
		if err != nil {
			return err
		}

		var remote *string
		if remoteAddr != "" {
			remote = &remoteAddr
		}
		_, err = storage.Audit().CreateEntry(ctx, models.AuditEntry{
			ID:           uuid.New(),
			CreatedAt:    time.Now(),
			AdminID:      reviewerID,
			Action:       models.AuditActionWithdrawalReview,
			TargetUserID: &req.UserID,
			Detail: map[string]any{
				"request_id": requestID.String(),
				"decision":   decision,
				"amount":     req.Amount.String(),
			},
			RemoteAddr: remote,
		})
		return err
	})

	if err != nil {
		return models.WithdrawalRequest{}, err
	}

	s.metrics.ObserveWithdrawalReview(decision)
	s.logger.Info("Withdrawal request reviewed", "request_id", requestID, "decision", decision, "reviewer_id", reviewerID)

	// Fire the notification only after the transition committed
	if s.notifier != nil {
		s.notifier.NotifyReviewed(req)
	}

	return req, nil
}

func (s *WithdrawalService) GetRequest(ctx context.Context, requestID uuid.UUID) (models.WithdrawalRequest, error) {
	return s.storage.Withdrawal().GetRequest(ctx, requestID)
}

func (s *WithdrawalService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawalRequest, error) {
	return s.storage.Withdrawal().ListForUser(ctx, userID)
}

func (s *WithdrawalService) ListPending(ctx context.Context) ([]models.WithdrawalRequest, error) {
	return s.storage.Withdrawal().ListByStatus(ctx, models.WithdrawalStatusPending)
}
