package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypePayment    TransactionType = "payment"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer, TransactionTypePayment:
		return true
	}
	return false
}

// Outflow reports whether the type moves money away from the user.
func (t TransactionType) Outflow() bool {
	return t == TransactionTypeWithdrawal || t == TransactionTypeTransfer || t == TransactionTypePayment
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a record in status s may move to next.
// Only pending records change; every other status is terminal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s != TransactionStatusPending {
		return false
	}
	return next == TransactionStatusCompleted || next == TransactionStatusFailed || next == TransactionStatusCancelled
}

// Metadata is the free-form JSONB document attached to a transaction.
type Metadata map[string]any

// Value encodes the document as a JSON string. lib/pq sends []byte parameters
// as bytea, which a JSONB column rejects.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported source type %T", src)
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	*m = out
	return nil
}

// String returns the string value stored under key, or "" when absent or not a string.
func (m Metadata) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// Uint64 reads a numeric value stored under key. JSON numbers decode as float64.
func (m Metadata) Uint64(key string) (uint64, error) {
	switch v := m[key].(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("metadata %s: negative value", key)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("metadata %s: negative value", key)
		}
		return uint64(v), nil
	case nil:
		return 0, errors.New("metadata " + key + ": missing")
	default:
		return 0, fmt.Errorf("metadata %s: unexpected type %T", key, v)
	}
}

// Amount bounds checked before any arithmetic on a decoded amount. Rounding or
// comparing a decimal rescales its coefficient to the exponent, so the exponent
// must be bounded first.
const (
	MaxAmountExponent = 18
	maxAmountBits     = 128
)

// AmountWellFormed reports whether d has an exponent within ±MaxAmountExponent
// and a coefficient of at most 128 bits. It never rescales d.
func AmountWellFormed(d decimal.Decimal) bool {
	if e := d.Exponent(); e > MaxAmountExponent || e < -MaxAmountExponent {
		return false
	}
	return d.Coefficient().BitLen() <= maxAmountBits
}

type Transaction struct {
	ID             uuid.UUID         `json:"id"`
	Type           TransactionType   `json:"type"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Timestamp      time.Time         `json:"timestamp"`
	Status         TransactionStatus `json:"status"`
	UserID         uuid.UUID         `json:"user_id"`
	BlockchainHash *string           `json:"blockchain_hash,omitempty"`
	Metadata       Metadata          `json:"metadata"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Category is the spending category recorded in metadata, "general" when unset.
func (t *Transaction) Category() string {
	if c := t.Metadata.String("category"); c != "" {
		return c
	}
	return "general"
}

// TransactionFilter narrows a user's transaction listing. Zero values mean "no filter".
type TransactionFilter struct {
	Start  *time.Time
	End    *time.Time
	Type   TransactionType
	Status TransactionStatus
}

// IsZero reports whether no filter is set.
func (f TransactionFilter) IsZero() bool {
	return f.Start == nil && f.End == nil && f.Type == "" && f.Status == ""
}
