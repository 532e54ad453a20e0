package service

import (
	"context"
	"errors"
	"testing"

	"saveai-api/blockchain"
	"saveai-api/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttestationService_Record(t *testing.T) {
	tx := sampleTransaction(uuid.New())

	t.Run("anchors at head block", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{head: 19000000, chainID: 1}, "mainnet", "0xcontract")
		att, err := svc.Record(context.Background(), tx)
		require.NoError(t, err)
		assert.Equal(t, blockchain.AttestationHash(tx), att.BlockchainHash)
		assert.Equal(t, uint64(19000000), att.BlockNumber)
		assert.Equal(t, "mainnet", att.Network)
		assert.Equal(t, tx.ID, att.TransactionID)
	})

	t.Run("node error", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{err: errors.New("dial tcp: refused")}, "mainnet", "")
		_, err := svc.Record(context.Background(), tx)
		assert.Error(t, err)
	})
}

func TestAttestationService_Verify(t *testing.T) {
	attested := func() *model.Transaction {
		tx := sampleTransaction(uuid.New())
		hash := blockchain.AttestationHash(tx)
		tx.BlockchainHash = &hash
		tx.Status = model.TransactionStatusCompleted
		// Values read back from JSONB decode as float64.
		tx.Metadata[MetadataBlockNumber] = float64(100)
		return tx
	}

	t.Run("matching hash", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{head: 111}, "mainnet", "")
		result, err := svc.Verify(context.Background(), attested())
		require.NoError(t, err)
		assert.True(t, result.Verified)
		assert.Equal(t, result.BlockchainHash, result.ComputedHash)
		assert.Equal(t, uint64(100), result.BlockNumber)
		assert.Equal(t, uint64(12), result.Confirmations)
	})

	t.Run("status changes do not affect the hash", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{head: 100}, "mainnet", "")
		tx := attested()
		tx.Status = model.TransactionStatusCancelled
		tx.Metadata["note"] = "edited"

		result, err := svc.Verify(context.Background(), tx)
		require.NoError(t, err)
		assert.True(t, result.Verified)
		assert.Equal(t, uint64(1), result.Confirmations)
	})

	t.Run("tampered amount", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{head: 111}, "mainnet", "")
		tx := attested()
		tx.Amount = decimal.RequireFromString("25050")

		result, err := svc.Verify(context.Background(), tx)
		require.NoError(t, err)
		assert.False(t, result.Verified)
		assert.NotEqual(t, result.BlockchainHash, result.ComputedHash)
	})

	t.Run("head behind anchor", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{head: 50}, "mainnet", "")
		result, err := svc.Verify(context.Background(), attested())
		require.NoError(t, err)
		assert.Zero(t, result.Confirmations)
	})

	t.Run("unusable anchor block reports no confirmations", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{head: 19000000}, "mainnet", "")
		for name, value := range map[string]any{
			"missing":   nil,
			"string":    "100",
			"negative":  float64(-3),
			"malformed": map[string]any{"n": 100},
		} {
			tx := attested()
			if value == nil {
				delete(tx.Metadata, MetadataBlockNumber)
			} else {
				tx.Metadata[MetadataBlockNumber] = value
			}

			result, err := svc.Verify(context.Background(), tx)
			require.NoError(t, err, name)
			assert.True(t, result.Verified, name)
			assert.Zero(t, result.BlockNumber, name)
			assert.Zero(t, result.Confirmations, name)
		}
	})

	t.Run("not attested", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{}, "mainnet", "")
		_, err := svc.Verify(context.Background(), sampleTransaction(uuid.New()))
		assert.ErrorIs(t, err, ErrNotAttested)
	})
}

func TestAttestationService_Status(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{head: 42, chainID: 11155111}, "sepolia", "0xabc")
		status := svc.Status(context.Background())
		assert.True(t, status.Reachable)
		assert.Equal(t, "11155111", status.ChainID)
		assert.Equal(t, uint64(42), status.HeadBlock)
		assert.Equal(t, "sepolia", status.Network)
		assert.Equal(t, "0xabc", status.ContractAddress)
		assert.Empty(t, status.Error)
	})

	t.Run("offline", func(t *testing.T) {
		node, err := blockchain.NewNode(context.Background(), "")
		require.NoError(t, err)
		svc := NewAttestationService(node, "mainnet", "")

		status := svc.Status(context.Background())
		assert.False(t, status.Reachable)
		assert.Zero(t, status.HeadBlock)
		assert.Equal(t, blockchain.ErrOffline.Error(), status.Error)
	})

	t.Run("node error", func(t *testing.T) {
		svc := NewAttestationService(&fakeNode{err: errors.New("timeout")}, "mainnet", "")
		status := svc.Status(context.Background())
		assert.False(t, status.Reachable)
		assert.Equal(t, "timeout", status.Error)
	})
}
