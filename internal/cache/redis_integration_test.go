//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisClient(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	addr := startRedis(t)
	ctx := context.Background()

	c, err := NewRedisClient(RedisConfig{Addr: addr, PoolSize: 2, Prefix: "test:"})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, Key("coach", "a"), []byte("first"), time.Minute))
	require.NoError(t, c.Set(ctx, Key("coach", "b"), []byte("second"), 0))
	require.NoError(t, c.Set(ctx, Key("card", "c"), []byte("third"), time.Minute))

	got, err := c.Get(ctx, "coach:a")
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	require.NoError(t, c.DeleteByPrefix(ctx, "coach:"))
	_, err = c.Get(ctx, "coach:b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	got, err = c.Get(ctx, "card:c")
	require.NoError(t, err)
	assert.Equal(t, "third", string(got))

	require.NoError(t, c.Delete(ctx, "card:c"))
	_, err = c.Get(ctx, "card:c")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient_PingFailure(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}
