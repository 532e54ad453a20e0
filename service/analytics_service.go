package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"saveai-api/logger"
	"saveai-api/model"
	"saveai-api/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAnalysisDays = 30
	MaxAnalysisDays     = 365
)

var ErrInvalidTimeframe = errors.New("days must be between 1 and 365")

var (
	trendThreshold = decimal.NewFromInt(5)
	savingsShare   = decimal.RequireFromString("0.10")
)

type AnalyticsService struct {
	repo    repository.ITransactionRepository
	vatRate decimal.Decimal
	now     func() time.Time
}

func NewAnalyticsService(repo repository.ITransactionRepository, vatRate decimal.Decimal) *AnalyticsService {
	return &AnalyticsService{repo: repo, vatRate: vatRate, now: time.Now}
}

// SpendingPatterns analyzes a user's completed outflows over the last days days.
// Trends compare against the window of equal length just before it and
// recurring patterns are looked for across both windows.
func (s *AnalyticsService) SpendingPatterns(ctx context.Context, userID uuid.UUID, days int) (*model.SpendingAnalysis, error) {
	if days == 0 {
		days = DefaultAnalysisDays
	}
	if days < 1 || days > MaxAnalysisDays {
		return nil, ErrInvalidTimeframe
	}

	end := s.now().UTC()
	window := time.Duration(days) * 24 * time.Hour
	start := end.Add(-window)
	previousStart := start.Add(-window)

	transactions, err := s.repo.ListByUser(ctx, userID, model.TransactionFilter{
		Start:  &previousStart,
		End:    &end,
		Status: model.TransactionStatusCompleted,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to load transactions for spending analysis")
		return nil, err
	}

	current := map[string]decimal.Decimal{}
	previous := map[string]decimal.Decimal{}
	months := map[recurringKey]map[string]bool{}
	total := decimal.Zero
	count := 0

	for _, t := range transactions {
		if !t.Type.Outflow() {
			continue
		}
		category := t.Category()
		key := recurringKey{category: category, amount: t.Amount.StringFixed(2)}
		if months[key] == nil {
			months[key] = map[string]bool{}
		}
		months[key][t.Timestamp.UTC().Format("2006-01")] = true

		if t.Timestamp.Before(start) {
			previous[category] = previous[category].Add(t.Amount)
			continue
		}
		current[category] = current[category].Add(t.Amount)
		total = total.Add(t.Amount)
		count++
	}

	analysis := &model.SpendingAnalysis{
		UserID:     userID,
		Timeframe:  model.Timeframe{Start: start, End: end, Days: days},
		Patterns:   recurringPatterns(months),
		Categories: current,
		Trends:     categoryTrends(current, previous),
		Summary: model.SpendingSummary{
			TotalSpent:       total,
			AverageDaily:     total.Div(decimal.NewFromInt(int64(days))).Round(2),
			TopCategory:      topCategory(current),
			TransactionCount: count,
		},
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"days":         days,
		"transactions": count,
	}).Debug("Spending analysis computed")
	return analysis, nil
}

// Insights turns the last 30 days of spending into actionable recommendations.
func (s *AnalyticsService) Insights(ctx context.Context, userID uuid.UUID) ([]model.Insight, error) {
	analysis, err := s.SpendingPatterns(ctx, userID, DefaultAnalysisDays)
	if err != nil {
		return nil, err
	}

	insights := []model.Insight{}
	if analysis.Summary.TransactionCount == 0 {
		return append(insights, model.Insight{
			Type:           "activity",
			Amount:         decimal.Zero,
			Recommendation: fmt.Sprintf("No spending recorded in the last %d days", DefaultAnalysisDays),
		}), nil
	}

	// Largest increasing category by current spend.
	var savings *model.CategoryTrend
	for i, tr := range analysis.Trends {
		if tr.Trend != model.TrendIncreasing {
			continue
		}
		if savings == nil || analysis.Categories[tr.Category].GreaterThan(analysis.Categories[savings.Category]) {
			savings = &analysis.Trends[i]
		}
	}
	if savings != nil {
		amount := analysis.Categories[savings.Category].Mul(savingsShare).Round(2)
		insights = append(insights, model.Insight{
			Type:     "savings",
			Category: savings.Category,
			Amount:   amount,
			Recommendation: fmt.Sprintf("Spending on %s rose %s%%; trimming it by 10%% would save %s",
				savings.Category, savings.ChangePercent.StringFixed(2), amount.StringFixed(2)),
		})
	}

	for _, p := range analysis.Patterns {
		insights = append(insights, model.Insight{
			Type:           "recurring",
			Category:       p.Category,
			Amount:         p.Amount,
			Recommendation: fmt.Sprintf("Recurring %s charge of %s in %s; review whether it is still needed", p.Frequency, p.Amount.StringFixed(2), p.Category),
		})
	}

	if s.vatRate.IsPositive() {
		vat := analysis.Summary.TotalSpent.Mul(s.vatRate).Div(hundred.Add(s.vatRate)).Round(2)
		insights = append(insights, model.Insight{
			Type:           "tax",
			Amount:         vat,
			Recommendation: fmt.Sprintf("About %s of your spending is VAT; keep invoices to reclaim input VAT", vat.StringFixed(2)),
		})
	}
	return insights, nil
}

type recurringKey struct {
	category string
	amount   string
}

func recurringPatterns(months map[recurringKey]map[string]bool) []model.SpendingPattern {
	patterns := []model.SpendingPattern{}
	for key, seen := range months {
		if len(seen) < 2 {
			continue
		}
		patterns = append(patterns, model.SpendingPattern{
			Type:      "recurring",
			Category:  key.category,
			Amount:    decimal.RequireFromString(key.amount),
			Frequency: "monthly",
		})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Category != patterns[j].Category {
			return patterns[i].Category < patterns[j].Category
		}
		return patterns[i].Amount.LessThan(patterns[j].Amount)
	})
	return patterns
}

// categoryTrends classifies each category's change against the previous window.
// Changes within five percent either way count as stable.
func categoryTrends(current, previous map[string]decimal.Decimal) []model.CategoryTrend {
	categories := map[string]bool{}
	for c := range current {
		categories[c] = true
	}
	for c := range previous {
		categories[c] = true
	}

	trends := []model.CategoryTrend{}
	for c := range categories {
		cur, prev := current[c], previous[c]
		tr := model.CategoryTrend{Category: c, Trend: model.TrendStable, ChangePercent: decimal.Zero}
		switch {
		case prev.IsZero():
			tr.Trend = model.TrendIncreasing
			tr.ChangePercent = hundred
		case cur.IsZero():
			tr.Trend = model.TrendDecreasing
			tr.ChangePercent = hundred.Neg()
		default:
			tr.ChangePercent = cur.Sub(prev).Div(prev).Mul(hundred).Round(2)
			if tr.ChangePercent.GreaterThan(trendThreshold) {
				tr.Trend = model.TrendIncreasing
			} else if tr.ChangePercent.LessThan(trendThreshold.Neg()) {
				tr.Trend = model.TrendDecreasing
			}
		}
		trends = append(trends, tr)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Category < trends[j].Category })
	return trends
}

// topCategory returns the category with the largest spend, ties broken alphabetically.
func topCategory(categories map[string]decimal.Decimal) string {
	var top string
	var best decimal.Decimal
	for c, amount := range categories {
		if top == "" || amount.GreaterThan(best) || (amount.Equal(best) && c < top) {
			top, best = c, amount
		}
	}
	return top
}
