package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VATCalculation struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	Currency      string          `json:"currency"`
	Category      string          `json:"category"`
	IsExempt      bool            `json:"is_exempt"`
	CalculatedAt  time.Time       `json:"calculated_at"`
}

type QuarterSummary struct {
	Quarter   int             `json:"quarter"`
	Taxable   decimal.Decimal `json:"taxable_amount"`
	InputVAT  decimal.Decimal `json:"input_vat"`
	OutputVAT decimal.Decimal `json:"output_vat"`
}

type TaxRecommendation struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type TaxReport struct {
	UserID          uuid.UUID           `json:"user_id"`
	Year            int                 `json:"year"`
	Currency        string              `json:"currency"`
	VATRate         decimal.Decimal     `json:"vat_rate"`
	TotalTaxable    decimal.Decimal     `json:"total_taxable_amount"`
	InputVAT        decimal.Decimal     `json:"input_vat"`
	OutputVAT       decimal.Decimal     `json:"output_vat"`
	NetVATPosition  decimal.Decimal     `json:"net_vat_position"`
	PaymentStatus   string              `json:"payment_status"`
	Quarters        []QuarterSummary    `json:"quarters"`
	Transactions    []VATCalculation    `json:"transactions"`
	Recommendations []TaxRecommendation `json:"recommendations"`
	GeneratedAt     time.Time           `json:"generated_at"`
}
