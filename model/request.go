// file: model/request.go

package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the payload for initiating a transaction.
// UserID is optional; it defaults to the authenticated caller.
type CreateTransactionRequest struct {
	Type     TransactionType `json:"type" validate:"required,oneof=deposit withdrawal transfer payment"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"1000.00"`
	Currency string          `json:"currency" validate:"omitempty,len=3,alpha"`
	UserID   *uuid.UUID      `json:"user_id" swaggertype:"string"`
	Metadata Metadata        `json:"metadata"`
}

// UpdateStatusRequest is the payload for moving a transaction to a new status.
type UpdateStatusRequest struct {
	Status TransactionStatus `json:"status" validate:"required,oneof=pending completed failed cancelled"`
}

// VerifyRequest asks for verification of a recorded attestation hash.
type VerifyRequest struct {
	BlockchainHash string `json:"blockchain_hash" validate:"required,len=66,startswith=0x,hexadecimal"`
}

// TokenRequest asks for a signed access token on behalf of a user.
type TokenRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required" swaggertype:"string"`
	Permissions []string  `json:"permissions" validate:"required,min=1,dive,oneof=admin transactions:read transactions:write"`
}

// VATRequest asks for the VAT computed on a stored transaction.
type VATRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required" swaggertype:"string"`
}
