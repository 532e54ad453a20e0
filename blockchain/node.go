package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"saveai-api/logger"

	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrOffline is returned by the offline node for queries it cannot answer.
var ErrOffline = errors.New("blockchain node not configured")

// Node is the subset of an EVM JSON-RPC client the service depends on.
type Node interface {
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// NewNode dials the node at url. With an empty url it returns an offline node
// that reports block zero, so attestation still works in local development.
func NewNode(ctx context.Context, url string) (Node, error) {
	if url == "" {
		logger.Log.Warn("No blockchain node configured; attestations will be anchored at block 0")
		return offlineNode{}, nil
	}
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing blockchain node: %w", err)
	}
	logger.Log.WithField("node_url", url).Info("Blockchain node client created")
	return client, nil
}

type offlineNode struct{}

func (offlineNode) BlockNumber(context.Context) (uint64, error) { return 0, nil }

func (offlineNode) ChainID(context.Context) (*big.Int, error) { return nil, ErrOffline }

func (offlineNode) Close() {}
