package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/metrics"
	"github.com/acmepay/walletd/internal/models"
	"github.com/acmepay/walletd/internal/repository"
)

const (
	// Smallest currency unit: two decimal places (cents)
	amountExponent = 2

	defaultMaxTransferAmount = 1_000_000
)

type Config struct {
	// Upper bound for a single transfer or adjustment amount
	// Defaults to 1,000,000.00 if zero
	MaxAmount decimal.Decimal
}

// LedgerService is the single choke-point for every balance change.
// Each mutation runs as one db transaction: wallet rows are locked, funds
// are verified under lock, and the transaction record is inserted before
// commit. Either all effects are visible or none.
type LedgerService struct {
	maxAmount decimal.Decimal
	storage   repository.Storage
	metrics   *metrics.Metrics
	logger    logger.Logger
}

func NewService(cfg Config, storage repository.Storage, m *metrics.Metrics, l logger.Logger) *LedgerService {
	maxAmount := cfg.MaxAmount
	if maxAmount.IsZero() {
		maxAmount = decimal.NewFromInt(defaultMaxTransferAmount)
	}

	return &LedgerService{
		maxAmount: maxAmount,
		storage:   storage,
		metrics:   m,
		logger:    l,
	}
}

// Transfer moves amount from the sender to the account resolved by email.
// Returns the sender's updated wallet only: the recipient's balance is
// deliberately not exposed to the caller.
// clientRequestID is optional; when set, a retried request with the same id
// fails with apperrors.ErrDuplicateRequest instead of transferring twice.
func (s *LedgerService) Transfer(ctx context.Context, senderID uuid.UUID, recipientEmail string, amount decimal.Decimal, description string, clientRequestID string) (models.Wallet, error) {
	started := time.Now()

	var senderWallet models.Wallet

	if err := s.validateAmount(amount); err != nil {
		s.observeTransfer("invalid_amount", started)
		return senderWallet, err
	}

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		recipient, err := storage.User().GetUserByEmail(ctx, recipientEmail)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return apperrors.ErrRecipientNotFound
			}
			return err
		}

		if recipient.ID == senderID {
			return apperrors.ErrSelfTransfer
		}

		// Lock both wallet rows for the rest of the transaction, so the
		// funds check below can't interleave with a concurrent debit
		wallets, err := storage.Wallet().LockWallets(ctx, senderID, recipient.ID)
		if err != nil {
			return err
		}

		var sender models.Wallet
		for _, w := range wallets {
			if w.TransfersDisabled {
				return apperrors.ErrTransfersDisabled
			}
			if w.UserID == senderID {
				sender = w
			}
		}

		if sender.Balance.LessThan(amount) {
			return apperrors.ErrInsufficientFunds
		}

		if description == "" {
			description = fmt.Sprintf("Transfer to %s", recipientEmail)
		}

		_, err = storage.Transaction().CreateTransaction(ctx, models.Transaction{
			ID:              uuid.New(),
			CreatedAt:       time.Now(),
			Type:            models.TransactionTypeTransfer,
			Amount:          amount,
			SenderID:        &senderID,
			RecipientID:     &recipient.ID,
			Status:          models.TransactionStatusCompleted,
			Description:     description,
			ClientRequestID: nullableString(clientRequestID),
		})
		if err != nil {
			return err
		}

		senderWallet, err = storage.Wallet().AddToBalance(ctx, senderID, amount.Neg())
		if err != nil {
			return err
		}

		_, err = storage.Wallet().AddToBalance(ctx, recipient.ID, amount)
		return err
	})

	if err != nil {
		s.observeTransfer(transferOutcome(err), started)
		s.logger.Info("Transfer failed", "sender_id", senderID, "amount", amount, "error", err)
		return models.Wallet{}, err
	}

	s.observeTransfer("ok", started)
	s.logger.Info("Transfer completed", "sender_id", senderID, "amount", amount, "new_balance", senderWallet.Balance)
	return senderWallet, nil
}

// Adjust applies a signed delta to the user's balance on behalf of an admin.
// The balance change, the transaction record and the audit entry commit in
// the same db transaction; a negative resulting balance rolls back all three.
func (s *LedgerService) Adjust(ctx context.Context, targetUserID uuid.UUID, delta decimal.Decimal, reason string, actingAdminID uuid.UUID, remoteAddr string) (models.Wallet, error) {
	var wallet models.Wallet

	if delta.IsZero() || !isWholeCents(delta) || delta.Abs().GreaterThan(s.maxAmount) {
		return wallet, apperrors.ErrAmountInvalid
	}

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		locked, err := storage.Wallet().LockWallets(ctx, targetUserID)
		if err != nil {
			return err
		}

		if locked[0].Balance.Add(delta).IsNegative() {
			return apperrors.ErrBalanceNegative
		}

		wallet, err = storage.Wallet().AddToBalance(ctx, targetUserID, delta)
		if err != nil {
			return err
		}

		tr := models.Transaction{
			ID:          uuid.New(),
			CreatedAt:   time.Now(),
			Type:        models.TransactionTypeDeposit,
			Amount:      delta.Abs(),
			RecipientID: &targetUserID,
			Status:      models.TransactionStatusCompleted,
			Description: reason,
		}
		if delta.IsNegative() {
			tr.Type = models.TransactionTypeWithdrawal
			tr.RecipientID = nil
			tr.SenderID = &targetUserID
		}

		if _, err = storage.Transaction().CreateTransaction(ctx, tr); err != nil {
			return err
		}

		_, err = storage.Audit().CreateEntry(ctx, models.AuditEntry{
			ID:           uuid.New(),
			CreatedAt:    time.Now(),
			AdminID:      actingAdminID,
			Action:       models.AuditActionBalanceAdjust,
			TargetUserID: &targetUserID,
			Detail: map[string]any{
				"amount_change": delta.String(),
				"reason":        reason,
			},
			RemoteAddr: nullableString(remoteAddr),
		})
		return err
	})

	if err != nil {
		s.logger.Warn("Balance adjustment failed", "admin_id", actingAdminID, "target_user_id", targetUserID, "delta", delta, "error", err)
		return models.Wallet{}, err
	}

	s.logger.Info("Balance adjusted", "admin_id", actingAdminID, "target_user_id", targetUserID, "delta", delta)
	return wallet, nil
}

// SetTransfersDisabled flips the administrative kill-switch on a wallet and
// records the action in the audit log.
func (s *LedgerService) SetTransfersDisabled(ctx context.Context, targetUserID uuid.UUID, disabled bool, actingAdminID uuid.UUID, remoteAddr string) (models.Wallet, error) {
	var wallet models.Wallet

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		wallet, err = storage.Wallet().SetTransfersDisabled(ctx, targetUserID, disabled)
		if err != nil {
			return err
		}

		_, err = storage.Audit().CreateEntry(ctx, models.AuditEntry{
			ID:           uuid.New(),
			CreatedAt:    time.Now(),
			AdminID:      actingAdminID,
			Action:       models.AuditActionTransferToggle,
			TargetUserID: &targetUserID,
			Detail:       map[string]any{"transfers_disabled": disabled},
			RemoteAddr:   nullableString(remoteAddr),
		})
		return err
	})

	if err != nil {
		return models.Wallet{}, err
	}

	s.logger.Info("Transfer kill-switch toggled", "admin_id", actingAdminID, "target_user_id", targetUserID, "disabled", disabled)
	return wallet, nil
}

func (s *LedgerService) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	return s.storage.Wallet().GetWallet(ctx, userID)
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return s.storage.Transaction().ListTransactions(ctx, userID, nil)
}

func (s *LedgerService) ListAuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	return s.storage.Audit().ListEntries(ctx, limit)
}

func (s *LedgerService) validateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperrors.ErrAmountInvalid
	case !isWholeCents(amount):
		return apperrors.ErrAmountInvalid
	case amount.GreaterThan(s.maxAmount):
		return apperrors.ErrAmountInvalid
	default:
		return nil
	}
}

func (s *LedgerService) observeTransfer(outcome string, started time.Time) {
	s.metrics.ObserveTransfer(outcome, time.Since(started).Seconds())
}

// isWholeCents reports whether amount has no sub-cent fraction
func isWholeCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(amountExponent))
}

func transferOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, apperrors.ErrRecipientNotFound):
		return "recipient_not_found"
	case errors.Is(err, apperrors.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, apperrors.ErrTransfersDisabled):
		return "transfers_disabled"
	case errors.Is(err, apperrors.ErrDuplicateRequest):
		return "duplicate_request"
	default:
		return "internal_error"
	}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
