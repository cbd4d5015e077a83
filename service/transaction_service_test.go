// service/transaction_service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"

	"go-ledger/logger"
	"go-ledger/model"
	"go-ledger/repository"
	"go-ledger/repository/memory"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init()
	logger.Log.SetLevel(logrus.ErrorLevel)
	os.Exit(m.Run())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type ledgerFixture struct {
	store   *memory.Store
	ledger  *memory.Ledger
	service *TransactionService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	ledger := store.Ledger()
	return &ledgerFixture{
		store:   store,
		ledger:  ledger,
		service: NewTransactionService(store, store, ledger, ledger, nil, nil),
	}
}

func (f *ledgerFixture) openAccount(t *testing.T, balance string) int {
	t.Helper()
	acc := &model.Account{
		Name:     "holder",
		Username: fmt.Sprintf("holder%d@example.com", rand.Int()),
		Balance:  dec(balance),
	}
	require.NoError(t, f.store.Create(context.Background(), acc))
	return acc.ID
}

func (f *ledgerFixture) balance(t *testing.T, id int) string {
	t.Helper()
	acc, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return acc.Balance.StringFixed(2)
}

func (f *ledgerFixture) record(t *testing.T, id int) *model.Transaction {
	t.Helper()
	tx, err := f.ledger.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tx
}

func (f *ledgerFixture) historyLen(t *testing.T, accountID int) int {
	t.Helper()
	txs, err := f.ledger.ListByAccountID(context.Background(), accountID)
	require.NoError(t, err)
	return len(txs)
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	kind, ok := KindOf(err)
	require.True(t, ok, "expected a ledger error, got %v", err)
	assert.Equal(t, want, kind)
}

func TestTransactionService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("success then insufficient funds", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100.00")
		b := f.openAccount(t, "0.00")

		tx, err := f.service.Transfer(ctx, a, b, dec("50"))

		require.NoError(t, err)
		assert.Equal(t, model.TransactionTypeTransfer, tx.Type)
		require.NotNil(t, tx.SenderID)
		assert.Equal(t, a, *tx.SenderID)
		assert.Equal(t, b, tx.ReceiverID)
		assert.Equal(t, "50.00", tx.Amount.StringFixed(2))
		assert.False(t, tx.IsReversed)
		assert.NotZero(t, tx.ID)
		assert.False(t, tx.CreatedAt.IsZero())
		assert.Equal(t, "50.00", f.balance(t, a))
		assert.Equal(t, "50.00", f.balance(t, b))

		_, err = f.service.Transfer(ctx, a, b, dec("200"))

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assertKind(t, err, KindInsufficientFunds)
		assert.Equal(t, "50.00", f.balance(t, a))
		assert.Equal(t, "50.00", f.balance(t, b))
		assert.Equal(t, 1, f.historyLen(t, a))
	})

	t.Run("exact balance may be spent", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "10.25")
		b := f.openAccount(t, "0")

		_, err := f.service.Transfer(ctx, a, b, dec("10.25"))

		require.NoError(t, err)
		assert.Equal(t, "0.00", f.balance(t, a))
		assert.Equal(t, "10.25", f.balance(t, b))
	})

	t.Run("fractional amounts stay exact", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "0.30")
		b := f.openAccount(t, "0")

		for i := 0; i < 3; i++ {
			_, err := f.service.Transfer(ctx, a, b, dec("0.10"))
			require.NoError(t, err)
		}

		assert.Equal(t, "0.00", f.balance(t, a))
		assert.Equal(t, "0.30", f.balance(t, b))
	})

	t.Run("missing recipient leaves no trace", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")

		_, err := f.service.Transfer(ctx, a, 999, dec("10"))

		assert.ErrorIs(t, err, ErrAccountNotFound)
		assertKind(t, err, KindNotFound)
		assert.Equal(t, "100.00", f.balance(t, a))
		assert.Equal(t, 0, f.historyLen(t, a))
	})

	t.Run("missing sender", func(t *testing.T) {
		f := newLedgerFixture(t)
		b := f.openAccount(t, "0")

		_, err := f.service.Transfer(ctx, 999, b, dec("10"))

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("invalid amounts", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "0")

		for _, amount := range []string{"0", "-5", "0.001", "10.999"} {
			_, err := f.service.Transfer(ctx, a, b, dec(amount))
			assert.ErrorIs(t, err, ErrInvalidAmount, amount)
			assertKind(t, err, KindInvalidOperation)
		}
		assert.Equal(t, "100.00", f.balance(t, a))
	})
}

func TestTransactionService_Transfer_SelfTransferSkipsStorage(t *testing.T) {
	accounts := new(MockAccountRepository)
	txm := &passthroughTx{}
	svc := NewTransactionService(txm, accounts, nil, nil, nil, nil)

	_, err := svc.Transfer(context.Background(), 1, 1, dec("10"))

	assert.ErrorIs(t, err, ErrSelfTransfer)
	assertKind(t, err, KindInvalidOperation)
	assert.Equal(t, 0, txm.calls)
	accounts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTransactionService_Transfer_LocksInAscendingOrder(t *testing.T) {
	accounts := new(MockAccountRepository)
	f := newLedgerFixture(t)
	svc := NewTransactionService(&passthroughTx{}, accounts, f.ledger, f.ledger, nil, nil)

	var order []int
	record := func(args mock.Arguments) { order = append(order, args.Int(1)) }
	accounts.On("FindByID", mock.Anything, 9).Run(record).Return(&model.Account{ID: 9, Balance: dec("100")}, nil).Once()
	accounts.On("FindByID", mock.Anything, 3).Run(record).Return(&model.Account{ID: 3, Balance: dec("0")}, nil).Once()
	accounts.On("Save", mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
		return a.ID == 9 && a.Balance.Equal(dec("60"))
	})).Return(nil).Once()
	accounts.On("Save", mock.Anything, mock.MatchedBy(func(a *model.Account) bool {
		return a.ID == 3 && a.Balance.Equal(dec("40"))
	})).Return(nil).Once()

	_, err := svc.Transfer(context.Background(), 9, 3, dec("40"))

	require.NoError(t, err)
	assert.Equal(t, []int{3, 9}, order)
	accounts.AssertExpectations(t)
}

func TestTransactionService_Transfer_InfrastructureErrorPropagates(t *testing.T) {
	accounts := new(MockAccountRepository)
	svc := NewTransactionService(&passthroughTx{}, accounts, nil, nil, nil, nil)
	connErr := errors.New("connection refused")
	accounts.On("FindByID", mock.Anything, 1).Return(nil, connErr).Once()

	_, err := svc.Transfer(context.Background(), 1, 2, dec("10"))

	assert.ErrorIs(t, err, connErr)
	_, isLedgerErr := KindOf(err)
	assert.False(t, isLedgerErr)
}

func TestTransactionService_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "10")

		tx, err := f.service.Deposit(ctx, a, dec("40"))

		require.NoError(t, err)
		assert.Equal(t, "50.00", f.balance(t, a))
		assert.Equal(t, model.TransactionTypeDeposit, tx.Type)
		assert.Nil(t, tx.SenderID)
		assert.Equal(t, a, tx.ReceiverID)
		assert.False(t, tx.IsReversed)
	})

	t.Run("unknown account", func(t *testing.T) {
		f := newLedgerFixture(t)

		_, err := f.service.Deposit(ctx, 42, dec("40"))

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "10")

		_, err := f.service.Deposit(ctx, a, dec("0"))

		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, "10.00", f.balance(t, a))
	})
}

func TestTransactionService_Revert(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip restores balances", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "20")
		original, err := f.service.Transfer(ctx, a, b, dec("50"))
		require.NoError(t, err)

		revert, err := f.service.Revert(ctx, original.ID, a)

		require.NoError(t, err)
		assert.Equal(t, "100.00", f.balance(t, a))
		assert.Equal(t, "20.00", f.balance(t, b))
		assert.Equal(t, model.TransactionTypeRevert, revert.Type)
		require.NotNil(t, revert.SenderID)
		assert.Equal(t, b, *revert.SenderID)
		assert.Equal(t, a, revert.ReceiverID)
		assert.Equal(t, "50.00", revert.Amount.StringFixed(2))
		assert.False(t, revert.IsReversed)
		require.NotNil(t, revert.RevertsTransactionID)
		assert.Equal(t, original.ID, *revert.RevertsTransactionID)
		assert.True(t, f.record(t, original.ID).IsReversed)
	})

	t.Run("second revert fails", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "0")
		original, err := f.service.Transfer(ctx, a, b, dec("50"))
		require.NoError(t, err)
		_, err = f.service.Revert(ctx, original.ID, a)
		require.NoError(t, err)

		_, err = f.service.Revert(ctx, original.ID, a)

		assert.ErrorIs(t, err, ErrAlreadyReverted)
		assertKind(t, err, KindAlreadyReverted)
		assert.Equal(t, "100.00", f.balance(t, a))
		assert.Equal(t, "0.00", f.balance(t, b))
		assert.Equal(t, 2, f.historyLen(t, a))
	})

	t.Run("receiver cannot revert", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "0")
		original, err := f.service.Transfer(ctx, a, b, dec("50"))
		require.NoError(t, err)

		_, err = f.service.Revert(ctx, original.ID, b)

		assert.ErrorIs(t, err, ErrNotOriginalSender)
		assertKind(t, err, KindForbidden)
		assert.False(t, f.record(t, original.ID).IsReversed)
		assert.Equal(t, "50.00", f.balance(t, b))
	})

	t.Run("ownership is checked before the reversal flag", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "0")
		original, err := f.service.Transfer(ctx, a, b, dec("50"))
		require.NoError(t, err)
		_, err = f.service.Revert(ctx, original.ID, a)
		require.NoError(t, err)

		_, err = f.service.Revert(ctx, original.ID, b)

		assert.ErrorIs(t, err, ErrNotOriginalSender)
	})

	t.Run("deposits are not reversible by anyone", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "0")
		stranger := f.openAccount(t, "0")
		deposit, err := f.service.Deposit(ctx, a, dec("40"))
		require.NoError(t, err)

		for _, caller := range []int{a, stranger} {
			_, err = f.service.Revert(ctx, deposit.ID, caller)
			assert.ErrorIs(t, err, ErrNotReversible)
			assertKind(t, err, KindInvalidOperation)
		}
		assert.Equal(t, "40.00", f.balance(t, a))
		assert.False(t, f.record(t, deposit.ID).IsReversed)
	})

	t.Run("revert records are not reversible", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "0")
		original, err := f.service.Transfer(ctx, a, b, dec("50"))
		require.NoError(t, err)
		revert, err := f.service.Revert(ctx, original.ID, a)
		require.NoError(t, err)

		_, err = f.service.Revert(ctx, revert.ID, b)
		assert.ErrorIs(t, err, ErrNotReversible)

		_, err = f.service.Revert(ctx, revert.ID, a)
		assert.ErrorIs(t, err, ErrNotOriginalSender)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")

		_, err := f.service.Revert(ctx, 404, a)

		assert.ErrorIs(t, err, ErrTransactionNotFound)
		assertKind(t, err, KindNotFound)
	})

	t.Run("receiver already spent the funds", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "0")
		c := f.openAccount(t, "0")
		original, err := f.service.Transfer(ctx, a, b, dec("50"))
		require.NoError(t, err)
		_, err = f.service.Transfer(ctx, b, c, dec("30"))
		require.NoError(t, err)

		_, err = f.service.Revert(ctx, original.ID, a)

		assert.ErrorIs(t, err, ErrReversalUnfunded)
		assertKind(t, err, KindInsufficientFunds)
		assert.Equal(t, "50.00", f.balance(t, a))
		assert.Equal(t, "20.00", f.balance(t, b))
		assert.False(t, f.record(t, original.ID).IsReversed)
	})

	t.Run("dangling party is corrupt state", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		ghost := 777
		orphan := &model.Transaction{SenderID: &a, ReceiverID: ghost, Type: model.TransactionTypeTransfer, Amount: dec("5")}
		require.NoError(t, f.ledger.Create(ctx, orphan))

		_, err := f.service.Revert(ctx, orphan.ID, a)

		assert.ErrorIs(t, err, ErrMissingParty)
		assertKind(t, err, KindCorruptState)
		assert.False(t, f.record(t, orphan.ID).IsReversed)
		assert.Equal(t, "100.00", f.balance(t, a))
	})
}

func TestTransactionService_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.openAccount(t, "100")
	b := f.openAccount(t, "0")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Transfer(context.Background(), a, b, dec("10"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrInsufficientFunds) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 15, rejected)
	assert.Equal(t, "0.00", f.balance(t, a))
	assert.Equal(t, "100.00", f.balance(t, b))
}

func TestTransactionService_ConcurrentRevertsSucceedOnce(t *testing.T) {
	f := newLedgerFixture(t)
	a := f.openAccount(t, "100")
	b := f.openAccount(t, "0")
	original, err := f.service.Transfer(context.Background(), a, b, dec("50"))
	require.NoError(t, err)

	results := make(chan error, 8)
	var wg sync.WaitGroup
	for i := 0; i < cap(results); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Revert(context.Background(), original.ID, a)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, already int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyReverted):
			already++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, cap(results)-1, already)
	assert.Equal(t, "100.00", f.balance(t, a))
	assert.Equal(t, "0.00", f.balance(t, b))
}

// Random operations must conserve money, keep balances non-negative, and leave
// every balance equal to its opening value plus the net of its ledger records.
func TestTransactionService_LedgerReconcilesWithBalances(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	rng := rand.New(rand.NewSource(42))

	opening := map[int]decimal.Decimal{}
	var ids []int
	for _, b := range []string{"100.00", "35.50", "0.00", "12.34"} {
		id := f.openAccount(t, b)
		ids = append(ids, id)
		opening[id] = dec(b)
	}

	var transfers []*model.Transaction
	deposited := decimal.Zero
	for i := 0; i < 300; i++ {
		from, to := ids[rng.Intn(len(ids))], ids[rng.Intn(len(ids))]
		amount := decimal.New(int64(rng.Intn(5000)+1), -2)

		switch rng.Intn(4) {
		case 0:
			if _, err := f.service.Deposit(ctx, to, amount); err == nil {
				deposited = deposited.Add(amount)
			}
		case 1:
			if len(transfers) > 0 {
				tr := transfers[rng.Intn(len(transfers))]
				_, _ = f.service.Revert(ctx, tr.ID, *tr.SenderID)
			}
		default:
			tx, err := f.service.Transfer(ctx, from, to, amount)
			if err == nil {
				transfers = append(transfers, tx)
			}
		}
	}

	total, openingTotal := decimal.Zero, decimal.Zero
	for _, id := range ids {
		acc, err := f.store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, acc.Balance.IsNegative())
		total = total.Add(acc.Balance)
		openingTotal = openingTotal.Add(opening[id])

		expected := opening[id]
		history, err := f.ledger.ListByAccountID(ctx, id)
		require.NoError(t, err)
		for _, tx := range history {
			if tx.ReceiverID == id {
				expected = expected.Add(tx.Amount)
			}
			if tx.SenderID != nil && *tx.SenderID == id {
				expected = expected.Sub(tx.Amount)
			}
		}
		assert.True(t, expected.Equal(acc.Balance), "account %d: ledger says %s, balance is %s", id, expected, acc.Balance)
	}
	assert.True(t, openingTotal.Add(deposited).Equal(total))
}

func TestTransactionService_AfterCommitHooks(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates cache and publishes on success", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "100")
		b := f.openAccount(t, "0")
		cache := new(mockCache)
		publisher := new(mockPublisher)
		svc := NewTransactionService(f.store, f.store, f.ledger, f.ledger, cache, publisher)

		cache.On("Del", []string{accountCacheKey(b), accountCacheKey(a)}).Return(redis.NewIntResult(2, nil)).Once()
		publisher.On("PublishTransactionRecorded", mock.MatchedBy(func(tx *model.Transaction) bool {
			return tx.Type == model.TransactionTypeTransfer && tx.ID > 0
		})).Return(nil).Once()

		_, err := svc.Transfer(ctx, a, b, dec("10"))

		require.NoError(t, err)
		cache.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("hook failures do not fail the operation", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "0")
		cache := new(mockCache)
		publisher := new(mockPublisher)
		svc := NewTransactionService(f.store, f.store, f.ledger, f.ledger, cache, publisher)

		cache.On("Del", []string{accountCacheKey(a)}).Return(redis.NewIntResult(0, errors.New("redis down"))).Once()
		publisher.On("PublishTransactionRecorded", mock.Anything).Return(errors.New("broker down")).Once()

		_, err := svc.Deposit(ctx, a, dec("5"))

		require.NoError(t, err)
		assert.Equal(t, "5.00", f.balance(t, a))
	})

	t.Run("nothing runs on failure", func(t *testing.T) {
		f := newLedgerFixture(t)
		a := f.openAccount(t, "0")
		b := f.openAccount(t, "0")
		cache := new(mockCache)
		publisher := new(mockPublisher)
		svc := NewTransactionService(f.store, f.store, f.ledger, f.ledger, cache, publisher)

		_, err := svc.Transfer(ctx, a, b, dec("10"))

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		cache.AssertNotCalled(t, "Del", mock.Anything)
		publisher.AssertNotCalled(t, "PublishTransactionRecorded", mock.Anything)
	})
}

func TestTransactionService_ReadOperations(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)
	a := f.openAccount(t, "100")
	b := f.openAccount(t, "0")
	c := f.openAccount(t, "0")
	first, err := f.service.Transfer(ctx, a, b, dec("10"))
	require.NoError(t, err)
	second, err := f.service.Deposit(ctx, a, dec("5"))
	require.NoError(t, err)

	t.Run("history is newest first", func(t *testing.T) {
		history, err := f.service.ListTransactions(ctx, a)

		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, second.ID, history[0].ID)
		assert.Equal(t, first.ID, history[1].ID)
	})

	t.Run("history of unknown account", func(t *testing.T) {
		_, err := f.service.ListTransactions(ctx, 999)

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("participants can read a record", func(t *testing.T) {
		got, err := f.service.GetTransaction(ctx, b, first.ID)

		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("outsiders cannot", func(t *testing.T) {
		_, err := f.service.GetTransaction(ctx, c, first.ID)

		assert.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := f.service.GetTransaction(ctx, a, 12345)

		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("wrapped: %w", ErrAlreadyReverted))
	assert.True(t, ok)
	assert.Equal(t, KindAlreadyReverted, kind)
	assert.Equal(t, "AlreadyReverted", kind.String())

	_, ok = KindOf(repository.ErrNotFound)
	assert.False(t, ok)
}
