package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"saveai-api/config"
	"saveai-api/logger"
	"saveai-api/model"
	"saveai-api/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrInvalidYear = errors.New("tax year out of range")

var hundred = decimal.NewFromInt(100)

// Payment status of a report's net VAT position.
const (
	VATDue        = "due"
	VATRefundable = "refundable"
	VATSettled    = "settled"
)

type TaxConfig struct {
	VATRate           decimal.Decimal
	TaxYear           int
	ReportingCurrency string
	ExemptCategories  []string
}

// TaxConfigFromApp builds a TaxConfig from config.AppConfig.
func TaxConfigFromApp() TaxConfig {
	tax := config.AppConfig.Tax
	return TaxConfig{
		VATRate:           decimal.NewFromFloat(tax.VATRate),
		TaxYear:           tax.TaxYear,
		ReportingCurrency: tax.ReportingCurrency,
		ExemptCategories:  tax.ExemptCategories,
	}
}

type TaxService struct {
	repo repository.ITransactionRepository
	txns *TransactionService
	cfg  TaxConfig
	now  func() time.Time
}

func NewTaxService(repo repository.ITransactionRepository, txns *TransactionService, cfg TaxConfig) *TaxService {
	return &TaxService{repo: repo, txns: txns, cfg: cfg, now: time.Now}
}

func (s *TaxService) isExempt(category string) bool {
	return slices.ContainsFunc(s.cfg.ExemptCategories, func(c string) bool {
		return strings.EqualFold(c, category)
	})
}

// CalculateVAT computes VAT at the configured rate, rounded to two places.
// Transactions in an exempt category carry no VAT.
func (s *TaxService) CalculateVAT(t *model.Transaction) *model.VATCalculation {
	category := t.Category()
	calc := &model.VATCalculation{
		TransactionID: t.ID,
		TaxableAmount: t.Amount,
		VATRate:       s.cfg.VATRate,
		VATAmount:     decimal.Zero,
		Currency:      s.cfg.ReportingCurrency,
		Category:      category,
		IsExempt:      s.isExempt(category),
		CalculatedAt:  s.now().UTC(),
	}
	if !calc.IsExempt {
		calc.VATAmount = t.Amount.Mul(s.cfg.VATRate).Div(hundred).Round(2)
	}
	return calc
}

// CalculateVATForTransaction loads a transaction the caller may read and computes its VAT.
func (s *TaxService) CalculateVATForTransaction(ctx context.Context, id uuid.UUID, caller *model.AppClaims) (*model.VATCalculation, error) {
	t, err := s.txns.GetTransaction(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return s.CalculateVAT(t), nil
}

// GenerateReport summarizes a user's completed transactions for a calendar year.
// A zero year selects the configured tax year.
func (s *TaxService) GenerateReport(ctx context.Context, userID uuid.UUID, year int) (*model.TaxReport, error) {
	if year == 0 {
		year = s.cfg.TaxYear
	}
	if year < 1970 || year > 9999 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"year":    year,
	})
	log.Info("Generating tax report")

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0).Add(-time.Microsecond)
	transactions, err := s.repo.ListByUser(ctx, userID, model.TransactionFilter{
		Start:  &start,
		End:    &end,
		Status: model.TransactionStatusCompleted,
	})
	if err != nil {
		log.WithError(err).Error("Failed to load transactions for tax report")
		return nil, err
	}

	report := &model.TaxReport{
		UserID:          userID,
		Year:            year,
		Currency:        s.cfg.ReportingCurrency,
		VATRate:         s.cfg.VATRate,
		TotalTaxable:    decimal.Zero,
		InputVAT:        decimal.Zero,
		OutputVAT:       decimal.Zero,
		Quarters:        make([]model.QuarterSummary, 4),
		Transactions:    []model.VATCalculation{},
		Recommendations: []model.TaxRecommendation{},
		GeneratedAt:     s.now().UTC(),
	}
	for i := range report.Quarters {
		report.Quarters[i] = model.QuarterSummary{Quarter: i + 1, Taxable: decimal.Zero, InputVAT: decimal.Zero, OutputVAT: decimal.Zero}
	}

	exemptCount := 0
	exemptTotal := decimal.Zero
	for _, t := range transactions {
		if t.Type == model.TransactionTypeTransfer {
			continue
		}
		calc := s.CalculateVAT(t)
		report.Transactions = append(report.Transactions, *calc)
		if calc.IsExempt {
			exemptCount++
			exemptTotal = exemptTotal.Add(t.Amount)
			continue
		}

		q := &report.Quarters[(int(t.Timestamp.UTC().Month())-1)/3]
		q.Taxable = q.Taxable.Add(t.Amount)
		report.TotalTaxable = report.TotalTaxable.Add(t.Amount)
		if t.Type == model.TransactionTypeDeposit {
			q.OutputVAT = q.OutputVAT.Add(calc.VATAmount)
			report.OutputVAT = report.OutputVAT.Add(calc.VATAmount)
		} else {
			q.InputVAT = q.InputVAT.Add(calc.VATAmount)
			report.InputVAT = report.InputVAT.Add(calc.VATAmount)
		}
	}

	report.NetVATPosition = report.OutputVAT.Sub(report.InputVAT)
	switch report.NetVATPosition.Sign() {
	case 1:
		report.PaymentStatus = VATDue
		report.Recommendations = append(report.Recommendations, model.TaxRecommendation{
			Type:        "vat_payment",
			Description: fmt.Sprintf("Net VAT of %s %s is due for %d", report.NetVATPosition.StringFixed(2), report.Currency, year),
			Amount:      report.NetVATPosition,
		})
	case -1:
		report.PaymentStatus = VATRefundable
		report.Recommendations = append(report.Recommendations, model.TaxRecommendation{
			Type:        "vat_refund",
			Description: fmt.Sprintf("Claim a refund of %s %s in excess input VAT", report.NetVATPosition.Neg().StringFixed(2), report.Currency),
			Amount:      report.NetVATPosition.Neg(),
		})
	default:
		report.PaymentStatus = VATSettled
	}
	if exemptCount > 0 {
		report.Recommendations = append(report.Recommendations, model.TaxRecommendation{
			Type:        "exempt_review",
			Description: fmt.Sprintf("%d exempt transactions were excluded; keep supporting documents", exemptCount),
			Amount:      exemptTotal,
		})
	}

	log.WithFields(logrus.Fields{
		"transactions": len(report.Transactions),
		"net_vat":      report.NetVATPosition.String(),
	}).Info("Tax report generated")
	return report, nil
}
