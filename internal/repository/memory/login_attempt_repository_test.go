package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementCountsWithinWindow(t *testing.T) {
	repo := NewLoginAttemptRepository()
	ctx := context.Background()

	first, err := repo.Increment(ctx, "a", time.Minute)
	require.NoError(t, err)
	second, err := repo.Increment(ctx, "a", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 2, second.Count)
	assert.Equal(t, first.FirstAttempt, second.FirstAttempt)

	other, err := repo.Increment(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Count)
}

func TestWindowExpiry(t *testing.T) {
	repo := NewLoginAttemptRepository()
	ctx := context.Background()

	_, err := repo.Increment(ctx, "a", 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)

	_, ok, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	next, err := repo.Increment(ctx, "a", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Count)
}

func TestReset(t *testing.T) {
	repo := NewLoginAttemptRepository()
	ctx := context.Background()

	_, _ = repo.Increment(ctx, "a", time.Minute)
	require.NoError(t, repo.Reset(ctx, "a"))

	_, ok, _ := repo.Get(ctx, "a")
	assert.False(t, ok)
}

func TestConcurrentIncrements(t *testing.T) {
	repo := NewLoginAttemptRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Increment(ctx, "a", time.Minute)
		}()
	}
	wg.Wait()

	got, ok, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50, got.Count)
}
