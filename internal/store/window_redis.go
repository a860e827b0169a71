package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/sliding-window/internal/window"
)

// slidingWindowScript runs the whole composite operation server-side.
// KEYS[1]: window key
// ARGV[1]: now (ms)   ARGV[2]: floor (ms)   ARGV[3]: expire (s)
// ARGV[4]: threshold  ARGV[5]: member       ARGV[6]: mode
// Returns {count, exceeded}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local floor = ARGV[2]
local expire = tonumber(ARGV[3])
local threshold = tonumber(ARGV[4])
local member = ARGV[5]
local mode = ARGV[6]

redis.call("ZREMRANGEBYSCORE", key, "-inf", floor)
redis.call("ZADD", key, now, member)
redis.call("EXPIRE", key, expire)

local count = redis.call("ZCARD", key)

if mode == "count" then
  return {count, 0}
end

if count > threshold then
  if mode == "cleanup" then
    redis.call("DEL", key)
  end
  return {count, 1}
end

return {count, 0}
`)

// RedisWindowStore is a Redis implementation of window.Store backed by a
// sorted set per key and a Lua script for atomicity.
type RedisWindowStore struct {
	client redis.Scripter
}

// NewRedisWindowStore creates a new Redis-backed sliding window store.
func NewRedisWindowStore(client redis.Scripter) *RedisWindowStore {
	return &RedisWindowStore{client: client}
}

func (r *RedisWindowStore) Apply(ctx context.Context, req window.Request) (window.Result, error) {
	res, err := slidingWindowScript.Run(ctx, r.client, []string{req.Key},
		req.Now,
		req.Floor(),
		req.ExpireSeconds,
		req.Threshold,
		strconv.FormatInt(req.Member, 10),
		req.Mode.String(),
	).Slice()
	if err != nil {
		return window.Result{}, err
	}

	if len(res) != 2 {
		return window.Result{}, fmt.Errorf("unexpected sliding window script result: %v", res)
	}

	count, err := toInt64(res[0])
	if err != nil {
		return window.Result{}, err
	}

	exceeded, err := toInt64(res[1])
	if err != nil {
		return window.Result{}, err
	}

	return window.Result{Count: count, Exceeded: exceeded == 1}, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected numeric type: %T", v)
	}
}

// Compile-time check.
var _ window.Store = (*RedisWindowStore)(nil)
