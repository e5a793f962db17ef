package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitScript is a sliding window over a sorted set of request
// timestamps. It returns {allowed, remaining, resetAt}.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = now + window
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return {1, limit - count - 1, now + window}
`)

const rateLimitKeyPrefix = "ratelimit:"

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter is shared by the per-profile API limit and the per-IP limit
// on auth endpoints. Keys are namespaced by the caller ("api:<id>",
// "auth:<ip>").
type RateLimiter struct {
	client redis.Scripter
	now    func() time.Time
}

func NewRateLimiter(client redis.Scripter) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// CheckLimit records one request against key. When Redis is unreachable the
// request is denied.
func (rl *RateLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) RateLimitDecision {
	now := rl.now()
	denied := RateLimitDecision{Limit: limit, ResetAt: now.Add(window)}

	result, err := rateLimitScript.Run(
		ctx,
		rl.client,
		[]string{rateLimitKeyPrefix + key},
		now.Unix(),
		int64(window.Seconds()),
		limit,
	).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, denying request")
		return denied
	}
	if len(result) != 3 {
		log.Warn().Str("key", key).Msg("unexpected rate limit result, denying request")
		return denied
	}

	return RateLimitDecision{
		Allowed:   result[0] == 1,
		Limit:     limit,
		Remaining: int(result[1]),
		ResetAt:   time.Unix(result[2], 0),
	}
}
