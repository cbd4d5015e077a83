// file: service/account_service.go

package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-ledger/logger"
	"go-ledger/model"
	"go-ledger/repository"
)

// AccountService serves read-only account views with a cache-aside strategy.
// Balances are invalidated by TransactionService after every commit.
type AccountService struct {
	repo  repository.IAccountRepository
	cache ICacheClient
	ttl   time.Duration
}

// NewAccountService accepts a nil cache, in which case every read hits the store.
func NewAccountService(repo repository.IAccountRepository, cache ICacheClient, ttl time.Duration) *AccountService {
	return &AccountService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

// GetAccount returns the account, preferring the cached copy.
func (s *AccountService) GetAccount(ctx context.Context, accountID int) (*model.Account, error) {
	key := accountCacheKey(accountID)
	log := logger.Log.WithField("account_id", accountID)

	// 1. Try the cache.
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var account model.Account
			if err := json.Unmarshal([]byte(cached), &account); err == nil {
				return &account, nil
			}
			log.Warn("Discarding undecodable cached account")
		}
	}

	// 2. Cache miss. Fetch from the store.
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	// 3. Store the result for future requests.
	if s.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil {
				log.WithError(err).Warn("Failed to cache account")
			}
		}
	}

	return account, nil
}
