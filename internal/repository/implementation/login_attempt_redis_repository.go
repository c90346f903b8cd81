package implementation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"studyroom-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

var incrementAttemptScript = redis.NewScript(`
local count = redis.call("HINCRBY", KEYS[1], "count", 1)
if count == 1 then
  redis.call("HSET", KEYS[1], "first", ARGV[1])
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {count, redis.call("HGET", KEYS[1], "first")}
`)

// LoginAttemptRedisRepository stores attempt windows as expiring Redis hashes
// so lockouts survive a restart.
type LoginAttemptRedisRepository struct {
	rdb    *redis.Client
	prefix string
}

func NewLoginAttemptRedisRepository(rdb *redis.Client, prefix string) *LoginAttemptRedisRepository {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "studyroom:login"
	}
	return &LoginAttemptRedisRepository{rdb: rdb, prefix: prefix}
}

func (r *LoginAttemptRedisRepository) key(key string) string {
	return r.prefix + ":" + key
}

func (r *LoginAttemptRedisRepository) Get(ctx context.Context, key string) (contract.LoginAttempt, bool, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return contract.LoginAttempt{}, false, fmt.Errorf("failed to read login attempts: %w", err)
	}
	if len(fields) == 0 {
		return contract.LoginAttempt{}, false, nil
	}
	count, err := strconv.Atoi(fields["count"])
	if err != nil {
		return contract.LoginAttempt{}, false, fmt.Errorf("corrupt attempt count: %w", err)
	}
	first, err := parseMillis(fields["first"])
	if err != nil {
		return contract.LoginAttempt{}, false, err
	}
	return contract.LoginAttempt{Count: count, FirstAttempt: first}, true, nil
}

func (r *LoginAttemptRedisRepository) Increment(ctx context.Context, key string, window time.Duration) (contract.LoginAttempt, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	res, err := incrementAttemptScript.Run(ctx, r.rdb, []string{r.key(key)}, now, window.Milliseconds()).Slice()
	if err != nil {
		return contract.LoginAttempt{}, fmt.Errorf("failed to record login attempt: %w", err)
	}
	if len(res) != 2 {
		return contract.LoginAttempt{}, errors.New("unexpected login attempt script reply")
	}
	count, ok := res[0].(int64)
	if !ok {
		return contract.LoginAttempt{}, errors.New("unexpected login attempt count type")
	}
	firstRaw, _ := res[1].(string)
	first, err := parseMillis(firstRaw)
	if err != nil {
		return contract.LoginAttempt{}, err
	}
	return contract.LoginAttempt{Count: int(count), FirstAttempt: first}, nil
}

func (r *LoginAttemptRedisRepository) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

func parseMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt attempt timestamp: %w", err)
	}
	return time.UnixMilli(ms), nil
}
