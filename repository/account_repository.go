package repository

import (
	"context"
	"database/sql"
	"errors"

	"go-ledger/logger"
	"go-ledger/model"

	"github.com/sirupsen/logrus"
)

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// Create inserts a new account and fills in its generated id and timestamp.
func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"username": account.Username,
		"balance":  account.Balance.StringFixed(2),
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (name, username, password_hash, balance) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, account.Name, account.Username, account.PasswordHash, account.Balance.StringFixed(2)).
		Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// FindByID loads an account. Within a unit of work the row stays locked until
// the unit commits or rolls back.
func (r *AccountRepository) FindByID(ctx context.Context, id int) (*model.Account, error) {
	log := logger.Log.WithField("account_id", id)

	query := `SELECT id, name, username, password_hash, balance, created_at FROM accounts WHERE id = $1`
	if inTx(ctx) {
		query += ` FOR UPDATE`
		log.Info("Executing query to get account for update")
	} else {
		log.Info("Executing query to get account by ID")
	}

	account, err := scanAccount(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info("Account not found")
		} else {
			log.WithError(err).Error("Failed to execute get account query")
		}
		return nil, err
	}
	return account, nil
}

// FindByLogin loads an account by its login identifier.
func (r *AccountRepository) FindByLogin(ctx context.Context, login string) (*model.Account, error) {
	log := logger.Log.WithField("username", login)
	log.Info("Executing query to get account by login")

	query := `SELECT id, name, username, password_hash, balance, created_at FROM accounts WHERE username = $1`
	account, err := scanAccount(conn(ctx, r.DB).QueryRowContext(ctx, query, login))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Error("Failed to execute get account by login query")
		}
		return nil, err
	}
	return account, nil
}

// Save persists the account's balance.
func (r *AccountRepository) Save(ctx context.Context, account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  account.ID,
		"new_balance": account.Balance.StringFixed(2),
	})
	log.Info("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1 WHERE id = $2`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, account.Balance.StringFixed(2), account.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*model.Account, error) {
	var acc model.Account
	err := row.Scan(&acc.ID, &acc.Name, &acc.Username, &acc.PasswordHash, &acc.Balance, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}
