package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/handlers/render"
	"github.com/acmepay/walletd/internal/handlers/userctx"
	"github.com/acmepay/walletd/internal/logger"
	"github.com/acmepay/walletd/internal/models"
)

type withdrawalResponse struct {
	ID         uuid.UUID  `json:"id"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func toWithdrawalResponse(req models.WithdrawalRequest) withdrawalResponse {
	amount, _ := req.Amount.Float64()
	return withdrawalResponse{
		ID:         req.ID,
		Amount:     amount,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
		ReviewedAt: req.ReviewedAt,
	}
}

func handleSubmitWithdrawal(withdrawalService withdrawalService, l logger.Logger) http.Handler {
	type request struct {
		Amount        decimal.Decimal `json:"amount" validate:"required"`
		PayoutDetails string          `json:"payout_details" validate:"required,max=500"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		req, err := withdrawalService.Submit(r.Context(), user.ID, data.Amount, data.PayoutDetails)

		switch {
		case err == nil:
			render.JSON(w, toWithdrawalResponse(req))
		case errors.Is(err, apperrors.ErrAmountInvalid):
			render.ServiceError(w, "Amount must be positive and in whole cents", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		default:
			l.Error("Failed to submit withdrawal request", "user_id", user.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListWithdrawals(withdrawalService withdrawalService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		list, err := withdrawalService.ListForUser(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list withdrawal requests", "user_id", user.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		requests := make([]withdrawalResponse, 0, len(list))
		for _, req := range list {
			requests = append(requests, toWithdrawalResponse(req))
		}
		render.JSON(w, requests)
	})
}
