package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/acmepay/walletd/internal/handlers/render"
	"github.com/acmepay/walletd/internal/handlers/userctx"
	"github.com/acmepay/walletd/internal/logger"
)

func handleGetWallet(ledgerService ledgerService, l logger.Logger) http.Handler {
	type response struct {
		Balance           float64 `json:"balance"`
		Currency          string  `json:"currency"`
		TransfersDisabled bool    `json:"transfers_disabled"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		wallet, err := ledgerService.GetWallet(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get wallet", "user_id", user.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		balance, _ := wallet.Balance.Float64()
		render.JSON(w, response{
			Balance:           balance,
			Currency:          wallet.Currency,
			TransfersDisabled: wallet.TransfersDisabled,
		})
	})
}

func handleListTransactions(ledgerService ledgerService, l logger.Logger) http.Handler {
	type transaction struct {
		ID          uuid.UUID  `json:"id"`
		CreatedAt   time.Time  `json:"created_at"`
		Type        string     `json:"type"`
		Amount      float64    `json:"amount"`
		SenderID    *uuid.UUID `json:"sender_id,omitempty"`
		RecipientID *uuid.UUID `json:"recipient_id,omitempty"`
		Status      string     `json:"status"`
		Description string     `json:"description"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		list, err := ledgerService.ListTransactions(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to list transactions", "user_id", user.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		transactions := make([]transaction, 0, len(list))
		for _, t := range list {
			amount, _ := t.Amount.Float64()
			transactions = append(transactions, transaction{
				ID:          t.ID,
				CreatedAt:   t.CreatedAt,
				Type:        t.Type,
				Amount:      amount,
				SenderID:    t.SenderID,
				RecipientID: t.RecipientID,
				Status:      t.Status,
				Description: t.Description,
			})
		}
		render.JSON(w, transactions)
	})
}
