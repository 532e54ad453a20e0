package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"saveai-api/logger"
	"saveai-api/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for transaction database operations.
type ITransactionRepository interface {
	Create(ctx context.Context, transaction *model.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	GetByBlockchainHash(ctx context.Context, hash string) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]*model.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.TransactionStatus, blockchainHash *string, metadata model.Metadata) (*model.Transaction, error)
	SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

const transactionColumns = `id, type, amount, currency, timestamp, status, user_id, blockchain_hash, metadata, created_at, updated_at`

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(
		&t.ID, &t.Type, &t.Amount, &t.Currency, &t.Timestamp, &t.Status,
		&t.UserID, &t.BlockchainHash, &t.Metadata, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new transaction record and fills in the database-assigned timestamps.
func (r *TransactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"user_id":        transaction.UserID,
		"type":           transaction.Type,
		"amount":         transaction.Amount.String(),
	})
	log.Info("Executing query to create a new transaction")

	query := `
		INSERT INTO transactions (id, type, amount, currency, timestamp, status, user_id, blockchain_hash, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		transaction.ID, transaction.Type, transaction.Amount, transaction.Currency, transaction.Timestamp,
		transaction.Status, transaction.UserID, transaction.BlockchainHash, transaction.Metadata,
	).Scan(&transaction.CreatedAt, &transaction.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

// GetByID returns sql.ErrNoRows when the transaction does not exist.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	log := logger.Log.WithField("transaction_id", id)
	log.Debug("Executing query to get transaction by ID")

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	t, err := scanTransaction(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute get transaction query")
		}
		return nil, err
	}
	return t, nil
}

func (r *TransactionRepository) GetByBlockchainHash(ctx context.Context, hash string) (*model.Transaction, error) {
	log := logger.Log.WithField("blockchain_hash", hash)
	log.Debug("Executing query to get transaction by blockchain hash")

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE blockchain_hash = $1`
	t, err := scanTransaction(r.DB.QueryRowContext(ctx, query, hash))
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute get transaction by hash query")
		}
		return nil, err
	}
	return t, nil
}

// ListByUser returns a user's transactions, newest first, narrowed by filter.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter model.TransactionFilter) ([]*model.Transaction, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to list transactions by user")

	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`)
	args := []any{userID}

	if filter.Start != nil {
		args = append(args, *filter.Start)
		fmt.Fprintf(&sb, " AND timestamp >= $%d", len(args))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		fmt.Fprintf(&sb, " AND timestamp <= $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		fmt.Fprintf(&sb, " AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	sb.WriteString(" ORDER BY timestamp DESC")

	rows, err := r.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by user")
		return nil, err
	}
	defer rows.Close()

	transactions := []*model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		log.WithError(err).Error("Failed while iterating transaction rows")
		return nil, err
	}
	return transactions, nil
}

// UpdateStatus moves a transaction from status from to status to, setting the
// attestation hash and metadata in the same statement. The row is matched on
// both id and the expected current status, so a concurrent change makes the
// update miss and return sql.ErrNoRows. updated_at is refreshed by the table
// trigger. A nil hash or metadata keeps the stored value.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.TransactionStatus, blockchainHash *string, metadata model.Metadata) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": id,
		"from":           from,
		"to":             to,
	})
	log.Info("Executing query to update transaction status")

	var metadataArg any
	if metadata != nil {
		metadataArg = metadata
	}

	query := `
		UPDATE transactions
		SET status = $1,
		    blockchain_hash = COALESCE($2, blockchain_hash),
		    metadata = COALESCE($3, metadata)
		WHERE id = $4 AND status = $5
		RETURNING ` + transactionColumns
	t, err := scanTransaction(r.DB.QueryRowContext(ctx, query, to, blockchainHash, metadataArg, id, from))
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute update transaction status query")
		}
		return nil, err
	}
	return t, nil
}

// SumSince totals the amounts a user has initiated since the given instant,
// ignoring failed and cancelled transactions.
func (r *TransactionRepository) SumSince(ctx context.Context, userID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"since":   since,
	})
	log.Debug("Executing query to sum recent transactions")

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND timestamp >= $2 AND status NOT IN ('failed', 'cancelled')`
	var total decimal.Decimal
	if err := r.DB.QueryRowContext(ctx, query, userID, since).Scan(&total); err != nil {
		log.WithError(err).Error("Failed to execute sum transactions query")
		return decimal.Zero, err
	}
	return total, nil
}
