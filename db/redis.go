// file: db/redis.go

package db

import (
	"context"
	"fmt"

	"go-ledger/config"
	"go-ledger/logger"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis initializes and returns a new Redis client.
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	redisCfg := cfg.Redis
	redisAddr := fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping Redis")
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Log.WithField("address", redisAddr).Info("Redis connection established successfully")
	return rdb, nil
}
