package implementation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisAttempts(t *testing.T) (*LoginAttemptRedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewLoginAttemptRedisRepository(rdb, ""), mr
}

func TestRedisAttemptsIncrementKeepsWindowStart(t *testing.T) {
	repo, mr := newRedisAttempts(t)
	ctx := context.Background()

	first, err := repo.Increment(ctx, "10.0.0.1", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)

	second, err := repo.Increment(ctx, "10.0.0.1", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Count)
	assert.True(t, first.FirstAttempt.Equal(second.FirstAttempt))

	assert.True(t, mr.Exists("studyroom:login:10.0.0.1"))
	assert.Greater(t, mr.TTL("studyroom:login:10.0.0.1"), time.Duration(0))
}

func TestRedisAttemptsGetAndReset(t *testing.T) {
	repo, _ := newRedisAttempts(t)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "client")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Increment(ctx, "client", time.Minute)
	require.NoError(t, err)

	got, ok, err := repo.Get(ctx, "client")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got.Count)

	require.NoError(t, repo.Reset(ctx, "client"))
	_, ok, err = repo.Get(ctx, "client")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisAttemptsWindowExpires(t *testing.T) {
	repo, mr := newRedisAttempts(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Increment(ctx, "client", time.Minute)
		require.NoError(t, err)
	}
	mr.FastForward(time.Minute + time.Second)

	_, ok, err := repo.Get(ctx, "client")
	require.NoError(t, err)
	assert.False(t, ok)

	next, err := repo.Increment(ctx, "client", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Count)
}

func TestRedisAttemptsUnreachable(t *testing.T) {
	repo, mr := newRedisAttempts(t)
	mr.Close()

	_, err := repo.Increment(context.Background(), "client", time.Minute)
	assert.Error(t, err)
}
