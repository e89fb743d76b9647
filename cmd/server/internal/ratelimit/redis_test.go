package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.4-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	t.Cleanup(func() {
		assert.NoError(t, testcontainers.TerminateContainer(container), "failed to terminate container")
	})
	require.NoError(t, err, "failed to start redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLimiterStore(t *testing.T) {
	client := startRedis(t)

	t.Run("LimitsPerIdentifier", func(t *testing.T) {
		store := NewRedisLimitStore(RedisLimiterConfig{
			RedisClient: client,
			LimiterKey:  "trigger",
			PerMinute:   3,
		})

		for i := range 3 {
			ok, err := store.Allow("alice")
			require.NoError(t, err)
			assert.True(t, ok, "request %d", i)
		}

		ok, err := store.Allow("alice")
		require.NoError(t, err)
		assert.False(t, ok, "fourth request in the window")

		ok, err = store.Allow("bob")
		require.NoError(t, err)
		assert.True(t, ok, "separate identifier")
	})

	t.Run("KeysAreScopedByLimiter", func(t *testing.T) {
		global := NewRedisLimitStore(RedisLimiterConfig{RedisClient: client, LimiterKey: "global", PerMinute: 1})
		submit := NewRedisLimitStore(RedisLimiterConfig{RedisClient: client, LimiterKey: "submit", PerMinute: 1})

		ok, err := global.Allow("carol")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = submit.Allow("carol")
		require.NoError(t, err)
		assert.True(t, ok)

		ttl, err := client.TTL(context.Background(), global.key("carol")).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("CorruptCounterFailsOpen", func(t *testing.T) {
		open := NewRedisLimitStore(RedisLimiterConfig{
			RedisClient: client, LimiterKey: "corrupt", PerMinute: 1, FailOpen: true,
		})
		closed := NewRedisLimitStore(RedisLimiterConfig{
			RedisClient: client, LimiterKey: "corrupt", PerMinute: 1, FailOpen: false,
		})
		require.NoError(t, client.Set(context.Background(), open.key("dave"), "NaN", time.Minute).Err())

		ok, err := open.Allow("dave")
		require.Error(t, err)
		assert.True(t, ok)

		ok, err = closed.Allow("dave")
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestRedisLimiterStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ok, err := NewRedisLimitStore(RedisLimiterConfig{RedisClient: client, FailOpen: true}).Allow("erin")
	require.Error(t, err)
	assert.True(t, ok)

	ok, err = NewRedisLimitStore(RedisLimiterConfig{RedisClient: client, FailOpen: false}).Allow("erin")
	require.Error(t, err)
	assert.False(t, ok)
}
