package model

import (
	"time"

	"github.com/google/uuid"
)

// Attestation is the receipt of anchoring a transaction hash on chain.
type Attestation struct {
	TransactionID  uuid.UUID `json:"transaction_id"`
	BlockchainHash string    `json:"blockchain_hash"`
	BlockNumber    uint64    `json:"block_number"`
	Network        string    `json:"network"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// VerificationResult reports whether a stored transaction still matches its attestation.
type VerificationResult struct {
	Verified       bool         `json:"verified"`
	BlockchainHash string       `json:"hash"`
	ComputedHash   string       `json:"computed_hash"`
	BlockNumber    uint64       `json:"block_number"`
	Confirmations  uint64       `json:"confirmations"`
	Transaction    *Transaction `json:"transaction,omitempty"`
	CheckedAt      time.Time    `json:"checked_at"`
}

// ChainStatus describes the configured network as seen from this service.
type ChainStatus struct {
	Network         string    `json:"network"`
	ContractAddress string    `json:"contract_address"`
	ChainID         string    `json:"chain_id,omitempty"`
	HeadBlock       uint64    `json:"head_block"`
	Reachable       bool      `json:"reachable"`
	Error           string    `json:"error,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}
