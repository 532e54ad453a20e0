package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"saveai-api/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testTaxConfig() TaxConfig {
	return TaxConfig{
		VATRate:           decimal.NewFromInt(5),
		TaxYear:           2025,
		ReportingCurrency: "AED",
		ExemptCategories:  []string{"healthcare", "education"},
	}
}

func txAt(userID uuid.UUID, typ model.TransactionType, amount string, ts time.Time, category string) *model.Transaction {
	md := model.Metadata{}
	if category != "" {
		md["category"] = category
	}
	return &model.Transaction{
		ID:        uuid.New(),
		Type:      typ,
		Amount:    decimal.RequireFromString(amount),
		Currency:  "AED",
		Timestamp: ts,
		Status:    model.TransactionStatusCompleted,
		UserID:    userID,
		Metadata:  md,
	}
}

func TestTaxService_CalculateVAT(t *testing.T) {
	svc := NewTaxService(nil, nil, testTaxConfig())
	userID := uuid.New()
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("standard rate", func(t *testing.T) {
		calc := svc.CalculateVAT(txAt(userID, model.TransactionTypePayment, "1000.00", ts, "utilities"))
		assert.Equal(t, "50.00", calc.VATAmount.StringFixed(2))
		assert.False(t, calc.IsExempt)
		assert.Equal(t, "AED", calc.Currency)
		assert.Equal(t, "utilities", calc.Category)
	})

	t.Run("rounds to two places", func(t *testing.T) {
		calc := svc.CalculateVAT(txAt(userID, model.TransactionTypePayment, "10.99", ts, ""))
		assert.Equal(t, "0.55", calc.VATAmount.String())
		assert.Equal(t, "general", calc.Category)
	})

	t.Run("exempt category", func(t *testing.T) {
		calc := svc.CalculateVAT(txAt(userID, model.TransactionTypePayment, "400", ts, "Healthcare"))
		assert.True(t, calc.IsExempt)
		assert.True(t, calc.VATAmount.IsZero())
	})
}

func TestTaxService_CalculateVATForTransaction(t *testing.T) {
	f := newTxnFixture()
	userID := uuid.New()
	tx := txAt(userID, model.TransactionTypePayment, "200", time.Now(), "")
	f.repo.On("GetByID", mock.Anything, tx.ID).Return(tx, nil).Once()
	svc := NewTaxService(f.repo, f.svc, testTaxConfig())

	calc, err := svc.CalculateVATForTransaction(context.Background(), tx.ID, claimsFor(userID, model.PermissionTransactionsRead))
	require.NoError(t, err)
	assert.Equal(t, "10", calc.VATAmount.String())

	_, err = svc.CalculateVATForTransaction(context.Background(), tx.ID, claimsFor(uuid.New(), model.PermissionTransactionsRead))
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTaxService_GenerateReport(t *testing.T) {
	userID := uuid.New()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 23, 59, 59, 999999000, time.UTC)
	filter := model.TransactionFilter{Start: &start, End: &end, Status: model.TransactionStatusCompleted}

	t.Run("net position due", func(t *testing.T) {
		repo := new(mockTransactionRepo)
		svc := NewTaxService(repo, nil, testTaxConfig())
		repo.On("ListByUser", mock.Anything, userID, filter).Return([]*model.Transaction{
			txAt(userID, model.TransactionTypeDeposit, "10000", time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), "salary"),
			txAt(userID, model.TransactionTypePayment, "2000", time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC), "utilities"),
			txAt(userID, model.TransactionTypeWithdrawal, "1000", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), ""),
			txAt(userID, model.TransactionTypeTransfer, "5000", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), ""),
			txAt(userID, model.TransactionTypePayment, "300", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), "education"),
		}, nil).Once()

		report, err := svc.GenerateReport(context.Background(), userID, 2025)
		require.NoError(t, err)
		assert.Equal(t, "13000", report.TotalTaxable.String())
		assert.Equal(t, "500", report.OutputVAT.String())
		assert.Equal(t, "150", report.InputVAT.String())
		assert.Equal(t, "350", report.NetVATPosition.String())
		assert.Equal(t, VATDue, report.PaymentStatus)
		assert.Len(t, report.Transactions, 4)

		require.Len(t, report.Quarters, 4)
		assert.Equal(t, "500", report.Quarters[0].OutputVAT.String())
		assert.Equal(t, "100", report.Quarters[1].InputVAT.String())
		assert.True(t, report.Quarters[2].Taxable.IsZero())
		assert.Equal(t, "50", report.Quarters[3].InputVAT.String())

		require.Len(t, report.Recommendations, 2)
		assert.Equal(t, "vat_payment", report.Recommendations[0].Type)
		assert.Equal(t, "exempt_review", report.Recommendations[1].Type)
		assert.Equal(t, "300", report.Recommendations[1].Amount.String())
		repo.AssertExpectations(t)
	})

	t.Run("refundable", func(t *testing.T) {
		repo := new(mockTransactionRepo)
		svc := NewTaxService(repo, nil, testTaxConfig())
		repo.On("ListByUser", mock.Anything, userID, filter).Return([]*model.Transaction{
			txAt(userID, model.TransactionTypePayment, "800", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), ""),
		}, nil).Once()

		report, err := svc.GenerateReport(context.Background(), userID, 0)
		require.NoError(t, err)
		assert.Equal(t, 2025, report.Year)
		assert.Equal(t, VATRefundable, report.PaymentStatus)
		assert.Equal(t, "-40", report.NetVATPosition.String())
		require.Len(t, report.Recommendations, 1)
		assert.Equal(t, "40", report.Recommendations[0].Amount.String())
	})

	t.Run("no activity", func(t *testing.T) {
		repo := new(mockTransactionRepo)
		svc := NewTaxService(repo, nil, testTaxConfig())
		repo.On("ListByUser", mock.Anything, userID, filter).Return([]*model.Transaction{}, nil).Once()

		report, err := svc.GenerateReport(context.Background(), userID, 2025)
		require.NoError(t, err)
		assert.Equal(t, VATSettled, report.PaymentStatus)
		assert.NotNil(t, report.Transactions)
		assert.Empty(t, report.Recommendations)
	})

	t.Run("invalid year", func(t *testing.T) {
		svc := NewTaxService(nil, nil, testTaxConfig())
		_, err := svc.GenerateReport(context.Background(), userID, 12)
		assert.ErrorIs(t, err, ErrInvalidYear)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(mockTransactionRepo)
		svc := NewTaxService(repo, nil, testTaxConfig())
		repo.On("ListByUser", mock.Anything, userID, filter).Return(nil, errors.New("db down")).Once()
		_, err := svc.GenerateReport(context.Background(), userID, 2025)
		assert.Error(t, err)
	})
}
