package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

type Timeframe struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

type SpendingPattern struct {
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency string          `json:"frequency"`
}

type CategoryTrend struct {
	Category      string          `json:"category"`
	Trend         string          `json:"trend"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

type SpendingSummary struct {
	TotalSpent       decimal.Decimal `json:"total_spent"`
	AverageDaily     decimal.Decimal `json:"average_daily"`
	TopCategory      string          `json:"top_category,omitempty"`
	TransactionCount int             `json:"transaction_count"`
}

type SpendingAnalysis struct {
	UserID     uuid.UUID                  `json:"user_id"`
	Timeframe  Timeframe                  `json:"timeframe"`
	Patterns   []SpendingPattern          `json:"patterns"`
	Categories map[string]decimal.Decimal `json:"categories"`
	Trends     []CategoryTrend            `json:"trends"`
	Summary    SpendingSummary            `json:"summary"`
}

type Insight struct {
	Type           string          `json:"type"`
	Category       string          `json:"category,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Recommendation string          `json:"recommendation"`
}
