package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrWalletNotFound = errors.New("wallet not found")

	ErrAmountInvalid     = errors.New("amount is invalid")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfTransfer      = errors.New("transfer to self is not allowed")
	ErrTransfersDisabled = errors.New("transfers are disabled for wallet")
	ErrBalanceNegative   = errors.New("resulting balance would be negative")
	ErrDuplicateRequest  = errors.New("request with this client id already processed")

	ErrRequestNotFound        = errors.New("withdrawal request not found")
	ErrRequestAlreadyReviewed = errors.New("withdrawal request already reviewed")
	ErrDecisionInvalid        = errors.New("review decision is invalid")

	ErrAdminRequired = errors.New("admin role required")
)
