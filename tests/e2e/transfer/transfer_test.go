package transfer

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/acmepay/walletd/internal/testutil"
	"github.com/acmepay/walletd/tests/e2e"
)

const (
	TransferURL = "/api/user/transfer"
)

func Test_Transfer(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	type request struct {
		ToEmail         string  `json:"to_email"`
		Amount          float64 `json:"amount"`
		Description     string  `json:"description,omitempty"`
		ClientRequestID string  `json:"client_request_id,omitempty"`
	}

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		senderEmail := "sender@example.com"
		recipientEmail := "recipient@example.com"
		pwd := "StrongEnoughPassword"

		_, err := s.AuthService.Register(t.Context(), senderEmail, pwd)
		require.NoError(t, err)
		_, err = s.AuthService.Register(t.Context(), recipientEmail, pwd)
		require.NoError(t, err)

		sender, err := s.Storage.User().GetUserByEmail(t.Context(), senderEmail)
		require.NoError(t, err)

		doTransfer := func(t *testing.T, data request) *http.Response {
			// Create request
			d, err := json.Marshal(data)
			require.NoError(t, err, "failed to marshal transfer request")
			req, err := http.NewRequest(http.MethodPost, srvURL+TransferURL, bytes.NewReader(d))
			require.NoError(t, err, "failed to create request")

			// Set authentication data
			pair, err := s.AuthService.Login(t.Context(), senderEmail, pwd)
			require.NoError(t, err, "failed to login user")
			s.AuthService.SetTokenPairToRequest(req, pair)

			// Send request
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "failed to send request")

			return resp
		}

		t.Run("transfer ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.Storage.Wallet().AddToBalance(t.Context(), sender.ID, decimal.NewFromInt(100))
				require.NoError(t, err, "failed to fund sender")

				resp := doTransfer(t, request{ToEmail: recipientEmail, Amount: 30.50, Description: "Lunch"})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"success": true,
					"new_balance": 69.5
				}`, string(body), "not expected response body")
			})
		})

		t.Run("insufficient funds collapsed to generic error", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp := doTransfer(t, request{ToEmail: recipientEmail, Amount: 1000})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "service_error",
					"message": "Transfer failed"
				}`, string(body), "not expected response body")
			})
		})

		t.Run("unknown recipient gets the same generic error", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.Storage.Wallet().AddToBalance(t.Context(), sender.ID, decimal.NewFromInt(100))
				require.NoError(t, err)

				resp := doTransfer(t, request{ToEmail: "nobody@example.com", Amount: 10})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				// Body must be indistinguishable from the insufficient funds case
				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "service_error",
					"message": "Transfer failed"
				}`, string(body), "not expected response body")
			})
		})

		t.Run("invalid amount", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp := doTransfer(t, request{ToEmail: recipientEmail, Amount: -10})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "service_error",
					"message": "Amount must be positive, in whole cents and within the allowed maximum"
				}`, string(body), "not expected response body")
			})
		})

		t.Run("duplicate client request id", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.Storage.Wallet().AddToBalance(t.Context(), sender.ID, decimal.NewFromInt(100))
				require.NoError(t, err)

				resp := doTransfer(t, request{ToEmail: recipientEmail, Amount: 10, ClientRequestID: "retry-1"})
				require.Equal(t, http.StatusOK, resp.StatusCode, "first transfer should be ok")
				resp.Body.Close() // nolint:errcheck

				resp = doTransfer(t, request{ToEmail: recipientEmail, Amount: 10, ClientRequestID: "retry-1"})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "service_error",
					"message": "Transfer with this client request id was already processed"
				}`, string(body), "not expected response body")
			})
		})

		t.Run("missing recipient email fails validation", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp := doTransfer(t, request{Amount: 10})
				defer resp.Body.Close() // nolint:errcheck
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code, body: %s", string(body))
				require.JSONEq(t, `{
					"error": "validation_failed",
					"message": "Request validation failed",
					"fields": {
						"to_email": "This field is required"
					}
				}`, string(body), "not expected response body")
			})
		})

		t.Run("unauthorized request", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				req, err := http.NewRequest(http.MethodPost, srvURL+TransferURL, nil)
				require.NoError(t, err, "failed to create request")

				resp, err := http.DefaultClient.Do(req)
				require.NoError(t, err, "failed to send request")
				defer resp.Body.Close() // nolint:errcheck

				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err, "failed to read response body")

				require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "unauthorized request should return 401. Body: %s", string(body))
			})
		})
	})
}
