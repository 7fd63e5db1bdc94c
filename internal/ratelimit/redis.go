package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var incrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisStore хранит счётчики в redis, общий для всех реплик сервиса.
// Инкремент и установка TTL выполняются одним Lua-скриптом.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// NewRedisStore создаёт хранилище с префиксом ключей "rl:".
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, prefix: "rl:"}
}

// Incr реализует Store.
func (s *RedisStore) Incr(ctx context.Context, key string, now time.Time, window time.Duration) (Bucket, error) {
	const op = "ratelimit.RedisStore.Incr"
	res, err := incrScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Bucket{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 2 {
		return Bucket{}, fmt.Errorf("%s: unexpected script result %v", op, res)
	}
	return Bucket{
		Count:   res[0],
		ResetAt: now.Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}
