// Package memory provides an in-process implementation of the repository
// interfaces. Units of work are fully serialized, which gives the same
// observable guarantees as row locking in postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-ledger/model"
	"go-ledger/repository"
)

type unitKey struct{}

// unit stages writes until the enclosing WithTransaction succeeds.
type unit struct {
	accounts     map[int]model.Account
	transactions map[int]model.Transaction
	nextAccount  int
	nextTx       int
}

type Store struct {
	mu           sync.Mutex
	accounts     map[int]model.Account
	transactions map[int]model.Transaction
	nextAccount  int
	nextTx       int
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[int]model.Account),
		transactions: make(map[int]model.Transaction),
		nextAccount:  1,
		nextTx:       1,
		now:          time.Now,
	}
}

// WithTransaction holds the store lock for the whole unit and applies the
// staged writes only when fn succeeds.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(unitKey{}).(*unit); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := &unit{
		accounts:     make(map[int]model.Account),
		transactions: make(map[int]model.Transaction),
		nextAccount:  s.nextAccount,
		nextTx:       s.nextTx,
	}
	if err := fn(context.WithValue(ctx, unitKey{}, u)); err != nil {
		return err
	}

	for id, a := range u.accounts {
		s.accounts[id] = a
	}
	for id, t := range u.transactions {
		s.transactions[id] = t
	}
	s.nextAccount = u.nextAccount
	s.nextTx = u.nextTx
	return nil
}

// run executes fn with a unit, joining the caller's unit when there is one so
// single calls outside WithTransaction are atomic on their own.
func (s *Store) run(ctx context.Context, fn func(u *unit) error) error {
	if u, ok := ctx.Value(unitKey{}).(*unit); ok {
		return fn(u)
	}
	return s.WithTransaction(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(unitKey{}).(*unit))
	})
}

func (s *Store) account(u *unit, id int) (model.Account, bool) {
	if a, ok := u.accounts[id]; ok {
		return a, true
	}
	a, ok := s.accounts[id]
	return a, ok
}

func (s *Store) transaction(u *unit, id int) (model.Transaction, bool) {
	if t, ok := u.transactions[id]; ok {
		return t, true
	}
	t, ok := s.transactions[id]
	return t, ok
}

func (s *Store) Create(ctx context.Context, account *model.Account) error {
	return s.run(ctx, func(u *unit) error {
		account.ID = u.nextAccount
		u.nextAccount++
		if account.CreatedAt.IsZero() {
			account.CreatedAt = s.now()
		}
		u.accounts[account.ID] = *account
		return nil
	})
}

func (s *Store) FindByID(ctx context.Context, id int) (*model.Account, error) {
	var found *model.Account
	err := s.run(ctx, func(u *unit) error {
		a, ok := s.account(u, id)
		if !ok {
			return repository.ErrNotFound
		}
		found = &a
		return nil
	})
	return found, err
}

func (s *Store) FindByLogin(ctx context.Context, login string) (*model.Account, error) {
	var found *model.Account
	err := s.run(ctx, func(u *unit) error {
		for id := range s.accounts {
			if a, _ := s.account(u, id); a.Username == login {
				found = &a
				return nil
			}
		}
		for _, a := range u.accounts {
			if a.Username == login {
				found = &a
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (s *Store) Save(ctx context.Context, account *model.Account) error {
	return s.run(ctx, func(u *unit) error {
		if _, ok := s.account(u, account.ID); !ok {
			return repository.ErrNotFound
		}
		u.accounts[account.ID] = *account
		return nil
	})
}

// Ledger exposes the transaction half of the store. Account and transaction
// repositories share method names, so they are split across two types.
func (s *Store) Ledger() *Ledger {
	return &Ledger{s: s}
}

type Ledger struct {
	s *Store
}

func (l *Ledger) Create(ctx context.Context, transaction *model.Transaction) error {
	return l.s.run(ctx, func(u *unit) error {
		transaction.ID = u.nextTx
		u.nextTx++
		transaction.CreatedAt = l.s.now()
		u.transactions[transaction.ID] = copyTransaction(*transaction)
		return nil
	})
}

func (l *Ledger) FindByID(ctx context.Context, id int) (*model.Transaction, error) {
	var found *model.Transaction
	err := l.s.run(ctx, func(u *unit) error {
		t, ok := l.s.transaction(u, id)
		if !ok {
			return repository.ErrNotFound
		}
		c := copyTransaction(t)
		found = &c
		return nil
	})
	return found, err
}

// Save persists only the reversal flag, mirroring the postgres repository.
func (l *Ledger) Save(ctx context.Context, transaction *model.Transaction) error {
	return l.s.run(ctx, func(u *unit) error {
		t, ok := l.s.transaction(u, transaction.ID)
		if !ok {
			return repository.ErrNotFound
		}
		t.IsReversed = transaction.IsReversed
		u.transactions[t.ID] = t
		return nil
	})
}

func (l *Ledger) ListByAccountID(ctx context.Context, accountID int) ([]*model.Transaction, error) {
	var out []*model.Transaction
	err := l.s.run(ctx, func(u *unit) error {
		seen := make(map[int]bool)
		collect := func(t model.Transaction) {
			if seen[t.ID] || !t.Involves(accountID) {
				return
			}
			seen[t.ID] = true
			c := copyTransaction(t)
			out = append(out, &c)
		}
		for _, t := range u.transactions {
			collect(t)
		}
		for _, t := range l.s.transactions {
			collect(t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func copyTransaction(t model.Transaction) model.Transaction {
	if t.SenderID != nil {
		id := *t.SenderID
		t.SenderID = &id
	}
	if t.RevertsTransactionID != nil {
		id := *t.RevertsTransactionID
		t.RevertsTransactionID = &id
	}
	return t
}

var (
	_ repository.IAccountRepository     = (*Store)(nil)
	_ repository.IAccountRegistrar      = (*Store)(nil)
	_ repository.ITxManager             = (*Store)(nil)
	_ repository.ITransactionRepository = (*Ledger)(nil)
	_ repository.ITransactionHistory    = (*Ledger)(nil)
)
