package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"saveai-api/blockchain"
	"saveai-api/logger"
	"saveai-api/model"

	"github.com/sirupsen/logrus"
)

// Metadata keys written when a transaction is attested.
const (
	MetadataBlockNumber = "block_number"
	MetadataNetwork     = "network"
)

var ErrNotAttested = errors.New("transaction has no blockchain attestation")

type AttestationService struct {
	node     blockchain.Node
	network  string
	contract string
	now      func() time.Time
}

func NewAttestationService(node blockchain.Node, network, contract string) *AttestationService {
	return &AttestationService{node: node, network: network, contract: contract, now: time.Now}
}

// Record computes the attestation hash for t and anchors it at the node's current head block.
func (s *AttestationService) Record(ctx context.Context, t *model.Transaction) (*model.Attestation, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"network":        s.network,
	})

	block, err := s.node.BlockNumber(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to read head block from node")
		return nil, fmt.Errorf("reading head block: %w", err)
	}

	att := &model.Attestation{
		TransactionID:  t.ID,
		BlockchainHash: blockchain.AttestationHash(t),
		BlockNumber:    block,
		Network:        s.network,
		Status:         "confirmed",
		Timestamp:      s.now().UTC(),
	}
	log.WithFields(logrus.Fields{
		"blockchain_hash": att.BlockchainHash,
		"block_number":    block,
	}).Info("Transaction attested")
	return att, nil
}

// Verify recomputes the hash of t and compares it with the stored attestation.
// Confirmations count the blocks from the anchor block up to the current head.
func (s *AttestationService) Verify(ctx context.Context, t *model.Transaction) (*model.VerificationResult, error) {
	if t.BlockchainHash == nil {
		return nil, ErrNotAttested
	}
	stored := blockchain.NormalizeHash(*t.BlockchainHash)
	computed := blockchain.AttestationHash(t)
	anchored, anchorErr := t.Metadata.Uint64(MetadataBlockNumber)
	if anchorErr != nil {
		logger.Log.WithError(anchorErr).WithField("transaction_id", t.ID).Warn("Attested transaction has no usable anchor block; reporting zero confirmations")
	}

	head, err := s.node.BlockNumber(ctx)
	if err != nil {
		logger.Log.WithError(err).WithField("transaction_id", t.ID).Error("Failed to read head block from node")
		return nil, fmt.Errorf("reading head block: %w", err)
	}

	var confirmations uint64
	if anchorErr == nil && head >= anchored {
		confirmations = head - anchored + 1
	}

	result := &model.VerificationResult{
		Verified:       stored == computed,
		BlockchainHash: stored,
		ComputedHash:   computed,
		BlockNumber:    anchored,
		Confirmations:  confirmations,
		CheckedAt:      s.now().UTC(),
	}
	if !result.Verified {
		logger.Log.WithFields(logrus.Fields{
			"transaction_id": t.ID,
			"stored_hash":    stored,
			"computed_hash":  computed,
		}).Warn("Attestation hash mismatch")
	}
	return result, nil
}

// Status reports the configured network and what the node can tell about it.
// Node errors are reported in the result rather than returned.
func (s *AttestationService) Status(ctx context.Context) *model.ChainStatus {
	status := &model.ChainStatus{
		Network:         s.network,
		ContractAddress: s.contract,
		CheckedAt:       s.now().UTC(),
	}

	head, err := s.node.BlockNumber(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.HeadBlock = head

	chainID, err := s.node.ChainID(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.ChainID = chainID.String()
	status.Reachable = true
	return status
}
