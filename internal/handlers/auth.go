package handlers

import (
	"errors"
	"net/http"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/handlers/render"
	"github.com/acmepay/walletd/internal/logger"
)

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Register(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				l.Error("Failed to register user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		authService.SetTokens(w, pair)
		render.JSON(w, response{Message: "User registered successfully"})
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusUnauthorized)
			default:
				l.Error("Failed to login user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		authService.SetTokens(w, pair)
		render.JSON(w, response{Message: "User logged in successfully"})
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefresh(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		pair, err := authService.Refresh(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenExpired):
				render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
			default:
				l.Debug("Failed to refresh tokens", "error", err)
				render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			}
			return
		}

		authService.SetTokens(w, pair)
		render.JSON(w, response{Message: "Tokens refreshed successfully"})
	})
}
