package service

import (
	"context"
	"errors"
	"fmt"

	"go-ledger/logger"
	"go-ledger/model"
	"go-ledger/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransactionService is the ledger engine. Every balance-affecting operation
// runs as a single unit of work: all checks pass and every write commits, or
// nothing is persisted.
type TransactionService struct {
	txManager       repository.ITxManager
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	history         repository.ITransactionHistory
	cache           ICacheClient
	publisher       ILedgerPublisher
}

// NewTransactionService wires the engine. cache and publisher may be nil.
func NewTransactionService(
	txManager repository.ITxManager,
	accountRepo repository.IAccountRepository,
	transactionRepo repository.ITransactionRepository,
	history repository.ITransactionHistory,
	cache ICacheClient,
	publisher ILedgerPublisher,
) *TransactionService {
	return &TransactionService{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		history:         history,
		cache:           cache,
		publisher:       publisher,
	}
}

// Transfer moves amount from sender to recipient and records a TRANSFER.
func (s *TransactionService) Transfer(ctx context.Context, senderID, recipientID int, amount decimal.Decimal) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation":    "transfer",
		"sender_id":    senderID,
		"recipient_id": recipientID,
		"amount":       amount.String(),
	})
	log.Info("Starting money transfer process")

	if err := validateAmount(amount); err != nil {
		return nil, s.reject(log, err)
	}
	if senderID == recipientID {
		return nil, s.reject(log, ErrSelfTransfer)
	}

	var created *model.Transaction
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		accounts, err := s.lockAccounts(ctx, senderID, recipientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		sender, recipient := accounts[senderID], accounts[recipientID]

		if sender.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		sender.Balance = sender.Balance.Sub(amount)
		recipient.Balance = recipient.Balance.Add(amount)
		if err := s.saveAccounts(ctx, sender, recipient); err != nil {
			return err
		}

		created = &model.Transaction{
			SenderID:   &senderID,
			ReceiverID: recipientID,
			Type:       model.TransactionTypeTransfer,
			Amount:     amount,
		}
		if err := s.transactionRepo.Create(ctx, created); err != nil {
			return fmt.Errorf("could not create transaction record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(log, err)
	}

	s.afterCommit(ctx, created)
	log.WithField("transaction_id", created.ID).Info("Transfer completed successfully")
	return created, nil
}

// Deposit credits amount to the account and records a DEPOSIT without sender.
func (s *TransactionService) Deposit(ctx context.Context, userID int, amount decimal.Decimal) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation": "deposit",
		"user_id":   userID,
		"amount":    amount.String(),
	})
	log.Info("Starting deposit process")

	if err := validateAmount(amount); err != nil {
		return nil, s.reject(log, err)
	}

	var created *model.Transaction
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("could not load account: %w", err)
		}

		account.Balance = account.Balance.Add(amount)
		if err := s.saveAccounts(ctx, account); err != nil {
			return err
		}

		created = &model.Transaction{
			ReceiverID: userID,
			Type:       model.TransactionTypeDeposit,
			Amount:     amount,
		}
		if err := s.transactionRepo.Create(ctx, created); err != nil {
			return fmt.Errorf("could not create transaction record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(log, err)
	}

	s.afterCommit(ctx, created)
	log.WithField("transaction_id", created.ID).Info("Deposit completed successfully")
	return created, nil
}

// Revert undoes a transfer made by callerID and records a REVERT pointing
// back at it. Checks run in a fixed order and the first failure is returned:
// existence, ownership, reversal flag, type, parties, receiver balance.
//
// Ownership is checked against the record's sender, so a record without one
// (a deposit) falls through to the type check and reports ErrNotReversible
// to any caller.
func (s *TransactionService) Revert(ctx context.Context, transactionID, callerID int) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation":      "revert",
		"transaction_id": transactionID,
		"caller_id":      callerID,
	})
	log.Info("Starting transaction reversal")

	var created *model.Transaction
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		original, err := s.transactionRepo.FindByID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("could not load transaction: %w", err)
		}

		if original.SenderID != nil && *original.SenderID != callerID {
			return ErrNotOriginalSender
		}
		if original.IsReversed {
			return ErrAlreadyReverted
		}
		if original.Type != model.TransactionTypeTransfer {
			return ErrNotReversible
		}

		senderID, receiverID := *original.SenderID, original.ReceiverID
		accounts, err := s.lockAccounts(ctx, senderID, receiverID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrMissingParty
			}
			return err
		}
		sender, receiver := accounts[senderID], accounts[receiverID]

		if receiver.Balance.LessThan(original.Amount) {
			return ErrReversalUnfunded
		}

		receiver.Balance = receiver.Balance.Sub(original.Amount)
		sender.Balance = sender.Balance.Add(original.Amount)
		if err := s.saveAccounts(ctx, receiver, sender); err != nil {
			return err
		}

		original.IsReversed = true
		if err := s.transactionRepo.Save(ctx, original); err != nil {
			return fmt.Errorf("could not mark transaction as reversed: %w", err)
		}

		created = &model.Transaction{
			SenderID:             &receiverID,
			ReceiverID:           senderID,
			Type:                 model.TransactionTypeRevert,
			Amount:               original.Amount,
			RevertsTransactionID: &original.ID,
		}
		if err := s.transactionRepo.Create(ctx, created); err != nil {
			return fmt.Errorf("could not create transaction record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(log, err)
	}

	s.afterCommit(ctx, created)
	log.WithField("revert_transaction_id", created.ID).Info("Transaction reverted successfully")
	return created, nil
}

// GetTransaction returns a record the caller sent or received.
func (s *TransactionService) GetTransaction(ctx context.Context, callerID, transactionID int) (*model.Transaction, error) {
	t, err := s.transactionRepo.FindByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !t.Involves(callerID) {
		logger.Log.WithFields(logrus.Fields{
			"caller_id":      callerID,
			"transaction_id": transactionID,
		}).Warn("Permission denied for accessing transaction")
		return nil, ErrNotParticipant
	}
	return t, nil
}

// ListTransactions retrieves the caller's transaction history, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, callerID int) ([]*model.Transaction, error) {
	if _, err := s.accountRepo.FindByID(ctx, callerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.history.ListByAccountID(ctx, callerID)
}

// lockAccounts loads both accounts in ascending id order so that two units
// touching the same pair always acquire row locks in the same sequence.
func (s *TransactionService) lockAccounts(ctx context.Context, a, b int) (map[int]*model.Account, error) {
	first, second := a, b
	if first > second {
		first, second = second, first
	}

	accounts := make(map[int]*model.Account, 2)
	for _, id := range []int{first, second} {
		account, err := s.accountRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("could not load account %d: %w", id, err)
		}
		accounts[id] = account
	}
	return accounts, nil
}

func (s *TransactionService) saveAccounts(ctx context.Context, accounts ...*model.Account) error {
	for _, account := range accounts {
		if account.Balance.IsNegative() {
			return fmt.Errorf("refusing to persist negative balance for account %d", account.ID)
		}
		if err := s.accountRepo.Save(ctx, account); err != nil {
			return fmt.Errorf("could not update balance of account %d: %w", account.ID, err)
		}
	}
	return nil
}

// afterCommit runs best-effort side effects for a committed record.
func (s *TransactionService) afterCommit(ctx context.Context, t *model.Transaction) {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"type":           t.Type,
	})

	if s.cache != nil {
		keys := []string{accountCacheKey(t.ReceiverID)}
		if t.SenderID != nil {
			keys = append(keys, accountCacheKey(*t.SenderID))
		}
		if err := s.cache.Del(ctx, keys...).Err(); err != nil {
			log.WithError(err).Warn("Failed to invalidate account cache")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionRecorded(ctx, t); err != nil {
			log.WithError(err).Warn("Failed to publish transaction event")
		}
	}
}

// reject logs a failed operation at a level matching its cause and returns err.
func (s *TransactionService) reject(log *logrus.Entry, err error) error {
	kind, ok := KindOf(err)
	switch {
	case !ok:
		log.WithError(err).Error("Ledger operation failed")
	case kind == KindCorruptState:
		log.WithError(err).Error("Ledger integrity violation detected")
	default:
		log.WithError(err).WithField("kind", kind.String()).Warn("Ledger operation rejected")
	}
	return err
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidAmount
	}
	return nil
}
