package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-ledger/logger"
	"go-ledger/model"
	"go-ledger/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrLoginTaken         = errors.New("username is already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// AuthService registers accounts and resolves credentials to account ids.
type AuthService struct {
	repo           repository.IAccountRegistrar
	secretKey      []byte
	tokenTTL       time.Duration
	openingBalance decimal.Decimal
	bcryptCost     int
}

func NewAuthService(repo repository.IAccountRegistrar, secretKey string, tokenTTL time.Duration, openingBalance decimal.Decimal) *AuthService {
	return &AuthService{
		repo:           repo,
		secretKey:      []byte(secretKey),
		tokenTTL:       tokenTTL,
		openingBalance: openingBalance,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Register opens an account credited with the configured opening balance.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.Account, error) {
	_, err := s.repo.FindByLogin(ctx, req.Username)
	if err == nil {
		return nil, ErrLoginTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: hash,
		Balance:      s.openingBalance,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("could not create account: %w", err)
	}

	logger.Log.WithField("account_id", account.ID).Info("Account registered")
	return account, nil
}

// Login verifies credentials and issues a signed access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.repo.FindByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !s.CheckPasswordHash(password, account.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return s.GenerateJWT(account.ID)
}

func (s *AuthService) GenerateJWT(accountID int) (string, error) {
	now := time.Now()
	claims := &model.AppClaims{
		UserID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(accountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID).Error("Failed to sign JWT")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}
	return tokenString, nil
}

// ParseJWT validates a token and returns the account id it was issued for.
func (s *AuthService) ParseJWT(tokenString string) (int, error) {
	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return 0, errors.New("invalid token claims")
	}
	return claims.UserID, nil
}
