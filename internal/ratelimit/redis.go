package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR and set the window TTL on first hit, atomically. Returns {count, pttl}.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// Redis shares counters between replicas.
type Redis struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

func NewRedis(rdb redis.Scripter, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, limit: limit, window: window, prefix: "authcore:rl:"}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := incrExpireScript.Run(ctx, r.rdb, []string{r.prefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}

	return decide(int(res[0]), r.limit, time.Duration(res[1])*time.Millisecond), nil
}
