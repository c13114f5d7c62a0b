package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/acmepay/walletd/internal/apperrors"
	"github.com/acmepay/walletd/internal/models"
	"github.com/acmepay/walletd/internal/repository"
)

const refreshCookieName = "refreshtoken"

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Secret key to sign user access token payload
	SecretKey string

	// Hasher to use during user registration or login process
	// Defaults to bcrypt
	Hasher PasswordHasher

	// Currency for the wallet created alongside every new user
	Currency string

	// Access and refresh token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	token *TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Wallet currency for new users
	currency string

	// Repository to access long term data
	storage repository.Storage
}

func NewService(cfg Config, storage repository.Storage) (*AuthService, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	currency := cfg.Currency
	if currency == "" {
		currency = "USD"
	}

	tokenManager, err := NewTokenManager(TokenManagerConfig{
		SecretKey:  cfg.SecretKey,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, storage.Refresh())
	if err != nil {
		return nil, err
	}

	return &AuthService{
		token:    tokenManager,
		hasher:   hasher,
		currency: currency,
		storage:  storage,
	}, nil
}

// Register creates the user together with a zero-balance wallet.
// Both rows commit in one db transaction: an account without a wallet
// must not exist.
func (s *AuthService) Register(ctx context.Context, email string, password string) (models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	var user models.User
	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		var err error
		user, err = storage.User().CreateUser(ctx, email, hash, models.RoleUser)
		if err != nil {
			return err
		}

		_, err = storage.Wallet().CreateWallet(ctx, user.ID, s.currency)
		return err
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		// Compare against a throwaway hash anyway to keep timing flat
		_ = s.hasher.Compare("$2a$10$0123456789012345678901uGZzW0A2eVMBXOzf1QC9sX3mDkWz1mS", password)
		return models.TokenPair{}, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrUserNotFound
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

// Refresh rotates the pair: the presented refresh token is marked used and
// can not be replayed
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	return pair, nil
}

// Auth authenticates the request by its Bearer access token
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	access, found := strings.CutPrefix(header, "Bearer ")
	if !found || access == "" {
		return models.User{}, errors.New("no bearer token in request")
	}

	userID, err := s.token.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	return s.storage.User().GetUserByID(ctx, userID)
}

// Set auth tokens to response: access as Authorization header,
// refresh as HttpOnly cookie
func (s *AuthService) SetTokens(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set("Authorization", "Bearer "+pair.Access.Value)

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.Refresh.Value,
		Path:     "/",
		MaxAge:   int(time.Until(pair.Refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// Get refresh token string from request cookie
func (s *AuthService) GetRefresh(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", apperrors.ErrRefreshTokenNotFound
	}
	return cookie.Value, nil
}

// SetTokenPairToRequest authorizes an outgoing request with the pair
// Intended for tests and internal clients
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set("Authorization", "Bearer "+pair.Access.Value)
}
