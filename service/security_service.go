package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"saveai-api/config"
	"saveai-api/logger"
	"saveai-api/model"
	"saveai-api/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// SecurityConfig holds the token and transaction limit settings.
type SecurityConfig struct {
	SecretKey  string
	Algorithm  string
	TokenTTL   time.Duration
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal
	DailyLimit decimal.Decimal
}

// SecurityConfigFromApp builds a SecurityConfig from config.AppConfig.
func SecurityConfigFromApp() SecurityConfig {
	sec := config.AppConfig.Security
	return SecurityConfig{
		SecretKey:  sec.SecretKey,
		Algorithm:  sec.Algorithm,
		TokenTTL:   time.Duration(sec.TokenExpireMinutes) * time.Minute,
		MinAmount:  decimal.NewFromFloat(sec.MinTransactionAmount),
		MaxAmount:  decimal.NewFromFloat(sec.MaxTransactionAmount),
		DailyLimit: decimal.NewFromFloat(sec.DailyLimit),
	}
}

type SecurityService struct {
	repo repository.ITransactionRepository
	cfg  SecurityConfig
	now  func() time.Time
}

func NewSecurityService(repo repository.ITransactionRepository, cfg SecurityConfig) *SecurityService {
	return &SecurityService{repo: repo, cfg: cfg, now: time.Now}
}

// ValidateTransaction runs the amount, authorization and daily risk checks
// against a transaction that has not been stored yet. A zero daily limit
// disables the risk check.
func (s *SecurityService) ValidateTransaction(ctx context.Context, t *model.Transaction, caller *model.AppClaims) (*model.SecurityValidation, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"user_id":        t.UserID,
	})

	checks := map[string]bool{
		model.CheckAmountWithinLimits: t.Amount.GreaterThanOrEqual(s.cfg.MinAmount) && t.Amount.LessThanOrEqual(s.cfg.MaxAmount),
		model.CheckUserAuthorized:     authorizedFor(caller, t.UserID, model.PermissionTransactionsWrite),
		model.CheckRiskAssessment:     true,
	}

	if s.cfg.DailyLimit.IsPositive() {
		spent, err := s.repo.SumSince(ctx, t.UserID, s.now().Add(-24*time.Hour))
		if err != nil {
			log.WithError(err).Error("Failed to load rolling daily total")
			return nil, fmt.Errorf("loading daily total: %w", err)
		}
		checks[model.CheckRiskAssessment] = spent.Add(t.Amount).LessThanOrEqual(s.cfg.DailyLimit)
	}

	result := &model.SecurityValidation{
		Valid:         true,
		TransactionID: t.ID,
		Checks:        checks,
		Timestamp:     s.now().UTC(),
	}
	for _, ok := range checks {
		if !ok {
			result.Valid = false
		}
	}
	if !result.Valid {
		log.WithField("failed_checks", result.FailedChecks()).Warn("Transaction failed security validation")
	}
	return result, nil
}

// GenerateToken signs an access token for userID carrying the given permissions.
func (s *SecurityService) GenerateToken(userID uuid.UUID, permissions []string) (*model.TokenResponse, error) {
	method := jwt.GetSigningMethod(s.cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, s.cfg.Algorithm)
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)
	if permissions == nil {
		permissions = []string{}
	}
	claims := &model.AppClaims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign JWT")
		return nil, fmt.Errorf("failed to sign token string: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// VerifyToken parses and validates a bearer token. Only the configured
// algorithm is accepted and the token must carry an expiry and a UUID subject.
func (s *SecurityService) VerifyToken(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(s.cfg.SecretKey), nil },
		jwt.WithValidMethods([]string{s.cfg.Algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return claims, nil
}

// authorizedFor reports whether caller may act on userID's transactions with permission p.
// Admins may act on anyone's.
func authorizedFor(caller *model.AppClaims, userID uuid.UUID, p string) bool {
	if caller == nil {
		return false
	}
	if caller.IsAdmin() {
		return true
	}
	id, err := caller.UserID()
	if err != nil {
		return false
	}
	return id == userID && caller.Has(p)
}
