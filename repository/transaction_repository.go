package repository

import (
	"context"
	"database/sql"
	"errors"

	"go-ledger/logger"
	"go-ledger/model"

	"github.com/sirupsen/logrus"
)

// TransactionRepository implements ITransactionRepository and ITransactionHistory.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

const transactionColumns = `id, sender_id, receiver_id, type, amount, is_reversed, reverts_transaction_id, created_at`

// Create appends a ledger record and fills in its id and creation time.
func (r *TransactionRepository) Create(ctx context.Context, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"type":        transaction.Type,
		"receiver_id": transaction.ReceiverID,
		"amount":      transaction.Amount.StringFixed(2),
	})
	log.Info("Executing query to create a new transaction")

	query := `INSERT INTO transactions (sender_id, receiver_id, type, amount, is_reversed, reverts_transaction_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		nullableID(transaction.SenderID),
		transaction.ReceiverID,
		string(transaction.Type),
		transaction.Amount.StringFixed(2),
		transaction.IsReversed,
		nullableID(transaction.RevertsTransactionID),
	).Scan(&transaction.ID, &transaction.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

// FindByID loads a ledger record, locking it when called inside a unit of work.
func (r *TransactionRepository) FindByID(ctx context.Context, id int) (*model.Transaction, error) {
	log := logger.Log.WithField("transaction_id", id)
	log.Info("Executing query to get transaction by ID")

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}

	var t model.Transaction
	err := scanTransaction(conn(ctx, r.DB).QueryRowContext(ctx, query, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		log.WithError(err).Error("Failed to execute get transaction query")
		return nil, err
	}
	return &t, nil
}

// Save persists the reversal flag; every other column is immutable.
func (r *TransactionRepository) Save(ctx context.Context, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"is_reversed":    transaction.IsReversed,
	})
	log.Info("Executing query to update transaction reversal flag")

	query := `UPDATE transactions SET is_reversed = $1 WHERE id = $2`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, transaction.IsReversed, transaction.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update transaction query")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByAccountID retrieves every record the account sent or received, newest first.
func (r *TransactionRepository) ListByAccountID(ctx context.Context, accountID int) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transactions by account ID")

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE sender_id = $1 OR receiver_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	if err := rows.Err(); err != nil {
		log.WithError(err).Error("Failed to iterate transaction rows")
		return nil, err
	}
	return transactions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner, t *model.Transaction) error {
	var (
		senderID  sql.NullInt64
		revertsID sql.NullInt64
		txType    string
	)
	if err := row.Scan(&t.ID, &senderID, &t.ReceiverID, &txType, &t.Amount, &t.IsReversed, &revertsID, &t.CreatedAt); err != nil {
		return err
	}
	t.Type = model.TransactionType(txType)
	t.SenderID = fromNullable(senderID)
	t.RevertsTransactionID = fromNullable(revertsID)
	return nil
}

func nullableID(id *int) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func fromNullable(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	id := int(v.Int64)
	return &id
}
