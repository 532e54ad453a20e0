package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"saveai-api/blockchain"
	"saveai-api/logger"
	"saveai-api/metrics"
	"saveai-api/model"
	"saveai-api/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrValidationFailed    = errors.New("security validation failed")
	ErrAttestationFailed   = errors.New("blockchain attestation failed")
	ErrInvalidAmount       = errors.New("amount must be positive with at most two decimal places")
	ErrInvalidCurrency     = errors.New("currency must be a three-letter code")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidStatus       = errors.New("invalid transaction status")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidRange        = errors.New("start must not be after end")
	ErrInvalidHash         = errors.New("blockchain hash must be 0x followed by 64 hex characters")
)

// ValidationError carries the failed security checks of a rejected transaction.
type ValidationError struct {
	Validation *model.SecurityValidation
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Validation.FailedChecks(), ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// TransactionValidator runs pre-flight checks on a new transaction.
type TransactionValidator interface {
	ValidateTransaction(ctx context.Context, t *model.Transaction, caller *model.AppClaims) (*model.SecurityValidation, error)
}

// Attestor anchors transactions on chain and verifies them later.
type Attestor interface {
	Record(ctx context.Context, t *model.Transaction) (*model.Attestation, error)
	Verify(ctx context.Context, t *model.Transaction) (*model.VerificationResult, error)
}

type TransactionService struct {
	repo            repository.ITransactionRepository
	validator       TransactionValidator
	attestor        Attestor
	cache           ICacheClient
	metrics         *metrics.Metrics
	defaultCurrency string
	cacheTTL        time.Duration
	now             func() time.Time
}

func NewTransactionService(
	repo repository.ITransactionRepository,
	validator TransactionValidator,
	attestor Attestor,
	cache ICacheClient,
	m *metrics.Metrics,
	defaultCurrency string,
	cacheTTL time.Duration,
) *TransactionService {
	return &TransactionService{
		repo:            repo,
		validator:       validator,
		attestor:        attestor,
		cache:           cache,
		metrics:         m,
		defaultCurrency: defaultCurrency,
		cacheTTL:        cacheTTL,
		now:             time.Now,
	}
}

// newTransaction builds the pending record described by req on behalf of caller.
func (s *TransactionService) newTransaction(req model.CreateTransactionRequest, caller *model.AppClaims) (*model.Transaction, error) {
	if caller == nil {
		return nil, ErrPermissionDenied
	}
	userID, err := caller.UserID()
	if err != nil {
		return nil, ErrPermissionDenied
	}
	if req.UserID != nil {
		userID = *req.UserID
	}

	if !req.Type.Valid() {
		return nil, ErrInvalidType
	}
	if !model.AmountWellFormed(req.Amount) || !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !validCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	metadata := model.Metadata{}
	maps.Copy(metadata, req.Metadata)

	return &model.Transaction{
		ID:        uuid.New(),
		Type:      req.Type,
		Amount:    req.Amount,
		Currency:  currency,
		Timestamp: s.now().UTC().Truncate(time.Microsecond),
		Status:    model.TransactionStatusPending,
		UserID:    userID,
		Metadata:  metadata,
	}, nil
}

// ValidateTransaction runs the security checks on req without storing anything.
func (s *TransactionService) ValidateTransaction(ctx context.Context, req model.CreateTransactionRequest, caller *model.AppClaims) (*model.SecurityValidation, error) {
	t, err := s.newTransaction(req, caller)
	if err != nil {
		return nil, err
	}
	return s.validator.ValidateTransaction(ctx, t, caller)
}

// CreateTransaction validates, stores and attests a new transaction. The record is
// written as pending, then moved to completed with its hash, or to failed when
// attestation does not succeed.
func (s *TransactionService) CreateTransaction(ctx context.Context, req model.CreateTransactionRequest, caller *model.AppClaims) (*model.Transaction, error) {
	t, err := s.newTransaction(req, caller)
	if err != nil {
		return nil, err
	}
	userID := t.UserID
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"user_id":        t.UserID,
		"type":           t.Type,
		"amount":         t.Amount.String(),
	})
	log.Info("Starting transaction creation")

	validation, err := s.validator.ValidateTransaction(ctx, t, caller)
	if err != nil {
		return nil, fmt.Errorf("validating transaction: %w", err)
	}
	if !validation.Valid {
		s.metrics.TransactionCreated(string(t.Type), "rejected")
		return nil, &ValidationError{Validation: validation}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("storing transaction: %w", err)
	}

	att, err := s.attestor.Record(ctx, t)
	if err != nil {
		s.metrics.AttestationFailed()
		if _, uerr := s.repo.UpdateStatus(ctx, t.ID, model.TransactionStatusPending, model.TransactionStatusFailed, nil, nil); uerr != nil {
			log.WithError(uerr).Error("Failed to mark transaction as failed after attestation error")
		}
		cacheDel(ctx, s.cache, transactionCacheKey(t.ID), userTransactionsCacheKey(userID))
		s.metrics.TransactionCreated(string(t.Type), string(model.TransactionStatusFailed))
		log.WithError(err).Error("Transaction attestation failed")
		return nil, fmt.Errorf("%w: %v", ErrAttestationFailed, err)
	}

	anchored := model.Metadata{}
	maps.Copy(anchored, t.Metadata)
	anchored[MetadataBlockNumber] = att.BlockNumber
	anchored[MetadataNetwork] = att.Network

	completed, err := s.repo.UpdateStatus(ctx, t.ID, model.TransactionStatusPending, model.TransactionStatusCompleted, &att.BlockchainHash, anchored)
	cacheDel(ctx, s.cache, transactionCacheKey(t.ID), userTransactionsCacheKey(userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Transaction left pending status during attestation; not completing it")
			return nil, fmt.Errorf("%w: transaction left pending status during attestation", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("completing transaction: %w", err)
	}

	s.metrics.TransactionCreated(string(t.Type), string(completed.Status))
	log.WithField("blockchain_hash", att.BlockchainHash).Info("Transaction created and attested")
	return completed, nil
}

// GetTransaction returns a transaction visible to caller, reading through the cache.
func (s *TransactionService) GetTransaction(ctx context.Context, id uuid.UUID, caller *model.AppClaims) (*model.Transaction, error) {
	t, err := s.loadTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authorizedFor(caller, t.UserID, model.PermissionTransactionsRead) {
		return nil, ErrPermissionDenied
	}
	return t, nil
}

func (s *TransactionService) loadTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	key := transactionCacheKey(id)
	var cached model.Transaction
	if cacheGet(ctx, s.cache, s.metrics, key, &cached) {
		return &cached, nil
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	cacheSet(ctx, s.cache, key, t, s.cacheTTL)
	return t, nil
}

// ListUserTransactions lists a user's transactions newest first. userID defaults
// to the caller; listing someone else's requires admin. Unfiltered listings are cached.
func (s *TransactionService) ListUserTransactions(ctx context.Context, userID *uuid.UUID, filter model.TransactionFilter, caller *model.AppClaims) ([]*model.Transaction, error) {
	if caller == nil {
		return nil, ErrPermissionDenied
	}
	target, err := caller.UserID()
	if err != nil {
		return nil, ErrPermissionDenied
	}
	if userID != nil {
		target = *userID
	}
	if !authorizedFor(caller, target, model.PermissionTransactionsRead) {
		return nil, ErrPermissionDenied
	}

	if filter.Type != "" && !filter.Type.Valid() {
		return nil, ErrInvalidType
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if filter.Start != nil && filter.End != nil && filter.Start.After(*filter.End) {
		return nil, ErrInvalidRange
	}

	key := userTransactionsCacheKey(target)
	if filter.IsZero() {
		var cached []*model.Transaction
		if cacheGet(ctx, s.cache, s.metrics, key, &cached) {
			return cached, nil
		}
	}

	transactions, err := s.repo.ListByUser(ctx, target, filter)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		cacheSet(ctx, s.cache, key, transactions, s.cacheTTL)
	}
	return transactions, nil
}

// UpdateTransactionStatus moves a transaction to status. Only pending
// transactions can change, and only by their owner or an admin.
func (s *TransactionService) UpdateTransactionStatus(ctx context.Context, id uuid.UUID, status model.TransactionStatus, caller *model.AppClaims) (*model.Transaction, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !authorizedFor(caller, current.UserID, model.PermissionTransactionsWrite) {
		return nil, ErrPermissionDenied
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
	}

	// The update only matches while the row still has current.Status, so a
	// concurrent transition makes this one fail instead of overwriting it.
	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, status, nil, nil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			cacheDel(ctx, s.cache, transactionCacheKey(id), userTransactionsCacheKey(current.UserID))
			return nil, fmt.Errorf("%w: status changed concurrently from %s", ErrInvalidTransition, current.Status)
		}
		return nil, err
	}

	cacheDel(ctx, s.cache, transactionCacheKey(id), userTransactionsCacheKey(updated.UserID))
	s.metrics.StatusChanged(string(status))
	logger.Log.WithFields(logrus.Fields{
		"transaction_id": id,
		"from":           current.Status,
		"to":             status,
	}).Info("Transaction status updated")
	return updated, nil
}

// VerifyByHash looks up the transaction attested under hash and re-verifies it.
// The transaction body is included only when caller may read it.
func (s *TransactionService) VerifyByHash(ctx context.Context, hash string, caller *model.AppClaims) (*model.VerificationResult, error) {
	hash = blockchain.NormalizeHash(hash)
	if !blockchain.IsValidHash(hash) {
		return nil, ErrInvalidHash
	}

	t, err := s.repo.GetByBlockchainHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	result, err := s.attestor.Verify(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("verifying attestation: %w", err)
	}
	if authorizedFor(caller, t.UserID, model.PermissionTransactionsRead) {
		result.Transaction = t
	}
	return result, nil
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
