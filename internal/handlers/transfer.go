package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/handlers/render"
	"github.com/acmepay/walletd/internal/handlers/userctx"
	"github.com/acmepay/walletd/internal/logger"
)

func handleTransfer(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		ToEmail         string          `json:"to_email" validate:"required,email"`
		Amount          decimal.Decimal `json:"amount" validate:"required"`
		Description     string          `json:"description" validate:"max=500"`
		ClientRequestID string          `json:"client_request_id" validate:"max=100"`
	}

	type response struct {
		Success    bool    `json:"success"`
		NewBalance float64 `json:"new_balance"`
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

		wallet, err := ledgerService.Transfer(r.Context(), user.ID, data.ToEmail, data.Amount, data.Description, data.ClientRequestID)

		// Ledger failures are collapsed into one generic message on purpose:
		// a probing caller must not learn whether the recipient exists or
		// what the sender's balance is. Full detail goes to the server log.
		switch {
		case err == nil:
			balance, _ := wallet.Balance.Float64()
			render.JSON(w, response{Success: true, NewBalance: balance})
		case errors.Is(err, apperrors.ErrAmountInvalid):
			render.ServiceError(w, "Amount must be positive, in whole cents and within the allowed maximum", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrDuplicateRequest):
			render.ServiceError(w, "Transfer with this client request id was already processed", http.StatusConflict)
		case errors.Is(err, apperrors.ErrInsufficientFunds),
			errors.Is(err, apperrors.ErrRecipientNotFound),
			errors.Is(err, apperrors.ErrSelfTransfer),
			errors.Is(err, apperrors.ErrTransfersDisabled):
			render.ServiceError(w, "Transfer failed", http.StatusBadRequest)
		default:
			l.Error("Transfer failed with internal error", "user_id", user.ID, "error", err)
			render.ServiceError(w, "Transfer failed", http.StatusBadRequest)
		}
	})
}
