package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy/store"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return store.NewRedisStore(client, "test:pool"), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a pool", func(t *testing.T) {
		rs, _ := newRedisStore(t)

		saved := testPool(t)
		require.NoError(t, rs.Save(ctx, saved))

		loaded, err := rs.Load(ctx)
		require.NoError(t, err)

		require.Equal(t, 2, loaded.Size())
		assert.Equal(t, "203.0.113.1:8080", loaded.Candidates[0].Address())
		assert.Equal(t, proxy.SourceFallbackFile, loaded.Candidates[0].Source)
		assert.True(t, loaded.ExpiresAt.Equal(saved.ExpiresAt))
	})

	t.Run("ttl follows the pool lifetime", func(t *testing.T) {
		rs, mr := newRedisStore(t)

		now := time.Now()
		rs.WithClock(func() time.Time { return now })

		c, err := proxy.NewCandidate("203.0.113.1", 8080, proxy.HTTPS, proxy.SourceListingAPI)
		require.NoError(t, err)
		pool := proxy.NewPool([]*proxy.Candidate{c}, now, 30*time.Minute, 0)

		require.NoError(t, rs.Save(ctx, pool))
		assert.InDelta(t, (30 * time.Minute).Seconds(), mr.TTL("test:pool").Seconds(), 1)
	})

	t.Run("missing key is ErrNotFound", func(t *testing.T) {
		rs, _ := newRedisStore(t)
		_, err := rs.Load(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("corrupt value is ErrNotFound", func(t *testing.T) {
		rs, mr := newRedisStore(t)
		mr.Set("test:pool", "not json at all")

		_, err := rs.Load(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
