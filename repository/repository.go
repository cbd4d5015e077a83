package repository

import (
	"context"
	"errors"

	"go-ledger/model"
)

// ErrNotFound is returned by every store when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// IAccountRepository is the account storage capability the transaction service needs.
// Inside a unit of work FindByID locks the row until the unit ends.
type IAccountRepository interface {
	FindByID(ctx context.Context, id int) (*model.Account, error)
	FindByLogin(ctx context.Context, login string) (*model.Account, error)
	Save(ctx context.Context, account *model.Account) error
}

// IAccountRegistrar creates accounts for the identity flow.
type IAccountRegistrar interface {
	Create(ctx context.Context, account *model.Account) error
	FindByLogin(ctx context.Context, login string) (*model.Account, error)
}

// ITransactionRepository defines the contract for the append-only ledger.
// Save only persists the reversal flag.
type ITransactionRepository interface {
	Create(ctx context.Context, transaction *model.Transaction) error
	FindByID(ctx context.Context, id int) (*model.Transaction, error)
	Save(ctx context.Context, transaction *model.Transaction) error
}

// ITransactionHistory lists ledger records for an account, newest first.
type ITransactionHistory interface {
	ListByAccountID(ctx context.Context, accountID int) ([]*model.Transaction, error)
}

// ITxManager runs fn as one atomic unit: every repository call made with the
// context passed to fn commits together, or not at all when fn returns an error.
type ITxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
