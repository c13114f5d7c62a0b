package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/handlers/render"
	"github.com/acmepay/walletd/internal/handlers/userctx"
	"github.com/acmepay/walletd/internal/logger"
)

const defaultAuditLimit = 50

// Admin endpoints surface specific errors: the caller is already privileged,
// so there is nothing to hide from them.

func handleAdminAdjust(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		TargetUserID string          `json:"target_user_id" validate:"required,uuid"`
		AmountChange decimal.Decimal `json:"amount_change" validate:"required"`
		Description  string          `json:"description" validate:"max=500"`
	}

	type response struct {
		Success    bool    `json:"success"`
		NewBalance float64 `json:"new_balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		targetID, err := uuid.Parse(data.TargetUserID)
		if err != nil {
			render.ServiceError(w, "Invalid target user id", http.StatusBadRequest)
			return
		}

		wallet, err := ledgerService.Adjust(r.Context(), targetID, data.AmountChange, data.Description, admin.ID, r.RemoteAddr)

		switch {
		case err == nil:
			balance, _ := wallet.Balance.Float64()
			render.JSON(w, response{Success: true, NewBalance: balance})
		case errors.Is(err, apperrors.ErrAmountInvalid):
			render.ServiceError(w, "Amount must be non-zero, in whole cents and within the allowed maximum", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrBalanceNegative):
			render.ServiceError(w, "Resulting balance would be negative", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "User wallet not found", http.StatusNotFound)
		default:
			l.Error("Failed to adjust balance", "admin_id", admin.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleAdminListWithdrawals(withdrawalService withdrawalService, l logger.Logger) http.Handler {
	type withdrawal struct {
		ID            uuid.UUID `json:"id"`
		UserID        uuid.UUID `json:"user_id"`
		Amount        float64   `json:"amount"`
		PayoutDetails string    `json:"payout_details"`
		Status        string    `json:"status"`
		CreatedAt     time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := withdrawalService.ListPending(r.Context())
		if err != nil {
			l.Error("Failed to list pending withdrawal requests", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		requests := make([]withdrawal, 0, len(list))
		for _, req := range list {
			amount, _ := req.Amount.Float64()
			requests = append(requests, withdrawal{
				ID:            req.ID,
				UserID:        req.UserID,
				Amount:        amount,
				PayoutDetails: req.PayoutDetails,
				Status:        req.Status,
				CreatedAt:     req.CreatedAt,
			})
		}
		render.JSON(w, requests)
	})
}

func handleAdminReviewWithdrawal(withdrawalService withdrawalService, l logger.Logger) http.Handler {
	type request struct {
		RequestID string `json:"request_id" validate:"required,uuid"`
		Decision  string `json:"decision" validate:"required,oneof=approved rejected"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		requestID, err := uuid.Parse(data.RequestID)
		if err != nil {
			render.ServiceError(w, "Invalid request id", http.StatusBadRequest)
			return
		}

		req, err := withdrawalService.Review(r.Context(), requestID, data.Decision, admin.ID, r.RemoteAddr)

		switch {
		case err == nil:
			render.JSON(w, toWithdrawalResponse(req))
		case errors.Is(err, apperrors.ErrRequestNotFound):
			render.ServiceError(w, "Withdrawal request not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrRequestAlreadyReviewed):
			render.ServiceError(w, "Withdrawal request already reviewed", http.StatusConflict)
		case errors.Is(err, apperrors.ErrDecisionInvalid):
			render.ServiceError(w, "Decision must be approved or rejected", http.StatusBadRequest)
		default:
			l.Error("Failed to review withdrawal request", "admin_id", admin.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleAdminToggleTransfers(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		TargetUserID string `json:"target_user_id" validate:"required,uuid"`
		Disabled     *bool  `json:"disabled" validate:"required"`
	}

	type response struct {
		TransfersDisabled bool `json:"transfers_disabled"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		targetID, err := uuid.Parse(data.TargetUserID)
		if err != nil {
			render.ServiceError(w, "Invalid target user id", http.StatusBadRequest)
			return
		}

		wallet, err := ledgerService.SetTransfersDisabled(r.Context(), targetID, *data.Disabled, admin.ID, r.RemoteAddr)

		switch {
		case err == nil:
			render.JSON(w, response{TransfersDisabled: wallet.TransfersDisabled})
		case errors.Is(err, apperrors.ErrWalletNotFound):
			render.ServiceError(w, "User wallet not found", http.StatusNotFound)
		default:
			l.Error("Failed to toggle transfers", "admin_id", admin.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleAdminListAudit(ledgerService ledgerService, l logger.Logger) http.Handler {
	type entry struct {
		ID           uuid.UUID      `json:"id"`
		CreatedAt    time.Time      `json:"created_at"`
		AdminID      uuid.UUID      `json:"admin_id"`
		Action       string         `json:"action"`
		TargetUserID *uuid.UUID     `json:"target_user_id,omitempty"`
		Detail       map[string]any `json:"detail"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := defaultAuditLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		list, err := ledgerService.ListAuditEntries(r.Context(), limit)
		if err != nil {
			l.Error("Failed to list audit entries", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		entries := make([]entry, 0, len(list))
		for _, e := range list {
			entries = append(entries, entry{
				ID:           e.ID,
				CreatedAt:    e.CreatedAt,
				AdminID:      e.AdminID,
				Action:       e.Action,
				TargetUserID: e.TargetUserID,
				Detail:       e.Detail,
			})
		}
		render.JSON(w, entries)
	})
}
