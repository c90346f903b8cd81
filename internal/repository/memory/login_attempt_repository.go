package memory

import (
	"context"
	"sync"
	"time"

	"studyroom-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type LoginAttemptRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewLoginAttemptRepository keeps attempt windows in process memory. Expired
// windows are purged every minute.
func NewLoginAttemptRepository() *LoginAttemptRepository {
	return &LoginAttemptRepository{
		cache: cache.New(cache.NoExpiration, time.Minute),
	}
}

func (r *LoginAttemptRepository) Get(_ context.Context, key string) (contract.LoginAttempt, bool, error) {
	if x, found := r.cache.Get(key); found {
		return x.(contract.LoginAttempt), true, nil
	}
	return contract.LoginAttempt{}, false, nil
}

func (r *LoginAttemptRepository) Increment(_ context.Context, key string, window time.Duration) (contract.LoginAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	attempt := contract.LoginAttempt{Count: 1, FirstAttempt: now}
	ttl := window

	if x, found := r.cache.Get(key); found {
		attempt = x.(contract.LoginAttempt)
		attempt.Count++
		ttl = window - now.Sub(attempt.FirstAttempt)
		if ttl <= 0 {
			attempt = contract.LoginAttempt{Count: 1, FirstAttempt: now}
			ttl = window
		}
	}

	r.cache.Set(key, attempt, ttl)
	return attempt, nil
}

func (r *LoginAttemptRepository) Reset(_ context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}
