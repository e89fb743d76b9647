package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "scoringapi-ratelimit-"

// RedisLimiterStore is an echo RateLimiterStore counting requests per identifier in a
// fixed one minute window shared by every server replica.
type RedisLimiterStore struct {
	db         *redis.Client
	limiterKey string
	perMinute  int64
	failOpen   bool
}

type RedisLimiterConfig struct {
	RedisClient *redis.Client
	LimiterKey  string
	PerMinute   int64
	FailOpen    bool
}

func NewRedisLimitStore(config RedisLimiterConfig) *RedisLimiterStore {
	return &RedisLimiterStore{
		perMinute:  config.PerMinute,
		db:         config.RedisClient,
		limiterKey: config.LimiterKey,
		failOpen:   config.FailOpen,
	}
}

func (store *RedisLimiterStore) key(identifier string) string {
	return keyPrefix + store.limiterKey + "-" + identifier
}

// Allow may let N-1 extra requests through when N writers race on a fresh window.
// Losing a distributed lock would be worse.
func (store *RedisLimiterStore) Allow(identifier string) (bool, error) {
	ctx := context.Background()
	key := store.key(identifier)

	reqsLeftStr, err := store.db.Get(ctx, key).Result()
	switch {
	case err == nil:
		reqsLeft, err := strconv.ParseInt(reqsLeftStr, 10, 64)
		if err != nil {
			return store.failOpen, err
		}
		if reqsLeft <= 0 {
			return false, nil
		}
	case errors.Is(err, redis.Nil):
		if err := store.db.SetNX(ctx, key, store.perMinute, time.Minute).Err(); err != nil {
			return store.failOpen, err
		}
	default:
		return store.failOpen, err
	}

	if err := store.db.Decr(ctx, key).Err(); err != nil {
		return store.failOpen, err
	}

	return true, nil
}
