package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/seekerapp/seeker-auth/pkg/database"
)

const rateLimitKeyPrefix = "seeker:ratelimit:"

// RateLimitResult describes the state of a key after an Allow call.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter is a sliding window log limiter backed by a Redis sorted set
// per key, scored by request time.
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// slidingWindowScript trims the window, then either records the request or
// reports the oldest entry, as one atomic step.
//
// KEYS[1] key; ARGV: exclusive window start, now (score), limit, member,
// ttl in milliseconds. Returns {allowed, count before, oldest score}.
var slidingWindowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
	local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
	return {0, count, oldest[2] or ''}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1, count, ''}
`)

// Allow records a request for key unless limit requests were already seen
// within window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := r.now()

	// Scores are passed as strings; Lua numbers would print them in
	// exponent form.
	reply, err := slidingWindowScript.Run(ctx, r.redis.Client, []string{rateLimitKeyPrefix + key},
		"("+strconv.FormatInt(now.Add(-window).UnixMicro(), 10),
		strconv.FormatInt(now.UnixMicro(), 10),
		limit,
		uuid.New().String(),
		(window + time.Minute).Milliseconds(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to apply rate limit: %w", err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply: %v", reply)
	}

	allowed, _ := reply[0].(int64)
	count, _ := reply[1].(int64)
	result := &RateLimitResult{Limit: limit}

	if allowed == 0 {
		result.RetryAfter = window
		if raw, _ := reply[2].(string); raw != "" {
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse rate limit score: %w", err)
			}
			oldestAt := time.UnixMicro(int64(score))
			result.RetryAfter = max(window-now.Sub(oldestAt), time.Second).Round(time.Second)
		}
		return result, nil
	}

	result.Allowed = true
	result.Remaining = limit - int(count) - 1
	return result, nil
}
