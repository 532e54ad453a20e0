package handler

import (
	"context"
	"net/http"
	"os"
	"testing"

	"saveai-api/logger"
	"saveai-api/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type mockTransactionService struct{ mock.Mock }

func (m *mockTransactionService) CreateTransaction(ctx context.Context, req model.CreateTransactionRequest, caller *model.AppClaims) (*model.Transaction, error) {
	args := m.Called(ctx, req, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *mockTransactionService) ValidateTransaction(ctx context.Context, req model.CreateTransactionRequest, caller *model.AppClaims) (*model.SecurityValidation, error) {
	args := m.Called(ctx, req, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SecurityValidation), args.Error(1)
}

func (m *mockTransactionService) GetTransaction(ctx context.Context, id uuid.UUID, caller *model.AppClaims) (*model.Transaction, error) {
	args := m.Called(ctx, id, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *mockTransactionService) ListUserTransactions(ctx context.Context, userID *uuid.UUID, filter model.TransactionFilter, caller *model.AppClaims) ([]*model.Transaction, error) {
	args := m.Called(ctx, userID, filter, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *mockTransactionService) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, caller *model.AppClaims) (*model.Transaction, error) {
	args := m.Called(ctx, id, status, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *mockTransactionService) VerifyByHash(ctx context.Context, hash string, caller *model.AppClaims) (*model.VerificationResult, error) {
	args := m.Called(ctx, hash, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationResult), args.Error(1)
}

type mockTaxService struct{ mock.Mock }

func (m *mockTaxService) CalculateVATForTransaction(ctx context.Context, id uuid.UUID, caller *model.AppClaims) (*model.VATCalculation, error) {
	args := m.Called(ctx, id, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VATCalculation), args.Error(1)
}

func (m *mockTaxService) GenerateReport(ctx context.Context, userID uuid.UUID, year int) (*model.TaxReport, error) {
	args := m.Called(ctx, userID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaxReport), args.Error(1)
}

type mockAnalyticsService struct{ mock.Mock }

func (m *mockAnalyticsService) SpendingPatterns(ctx context.Context, userID uuid.UUID, days int) (*model.SpendingAnalysis, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SpendingAnalysis), args.Error(1)
}

func (m *mockAnalyticsService) Insights(ctx context.Context, userID uuid.UUID) ([]model.Insight, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Insight), args.Error(1)
}

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) GenerateToken(userID uuid.UUID, permissions []string) (*model.TokenResponse, error) {
	args := m.Called(userID, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenResponse), args.Error(1)
}

func (m *mockTokenService) VerifyToken(tokenString string) (*model.AppClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AppClaims), args.Error(1)
}

type stubChain struct{ status *model.ChainStatus }

func (s stubChain) Status(context.Context) *model.ChainStatus { return s.status }

func claimsFor(userID uuid.UUID, permissions ...string) *model.AppClaims {
	c := &model.AppClaims{Permissions: permissions}
	c.Subject = userID.String()
	return c
}

// withClaims attaches claims the way AuthMiddleware does.
func withClaims(r *http.Request, claims *model.AppClaims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ClaimsKey, claims))
}
