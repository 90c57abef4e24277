// Package ratelimit keeps fixed-window attempt counters in Redis.  A
// counter starts its window on the first consumed point; once more points
// than allowed are consumed, the key lives on for the block duration.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result mirrors the state of one key: points consumed in the current
// window and milliseconds until the window (or block) ends.
type Result struct {
	ConsumedPoints int64
	MsBeforeNext   int64
}

var consumeScript = redis.NewScript(`
	local key = KEYS[1]
	local points = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local block_ms = tonumber(ARGV[3])

	local consumed = redis.call('INCR', key)
	if consumed == 1 then
		redis.call('PEXPIRE', key, window_ms)
	elseif consumed == points + 1 and block_ms > 0 then
		redis.call('PEXPIRE', key, block_ms)
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		redis.call('PEXPIRE', key, window_ms)
		ttl = window_ms
	end
	return { consumed, ttl }
`)

var getScript = redis.NewScript(`
	local v = redis.call('GET', KEYS[1])
	if not v then
		return false
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then ttl = 0 end
	return { tonumber(v), ttl }
`)

var resetScript = redis.NewScript(`return redis.call('DEL', KEYS[1])`)

// Counter is one limiter dimension, e.g. "ip-per-day".
type Counter struct {
	rdb    redis.Scripter
	prefix string
	name   string
	points int
	window time.Duration
	block  time.Duration
}

func NewCounter(rdb redis.Scripter, prefix, name string, points int, window, block time.Duration) *Counter {
	return &Counter{rdb: rdb, prefix: prefix, name: name, points: points, window: window, block: block}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Points() int  { return c.points }

func (c *Counter) key(k string) string { return c.prefix + ":" + c.name + ":" + k }

// Consume adds one point to key.
func (c *Counter) Consume(ctx context.Context, key string) (Result, error) {
	vals, err := consumeScript.Run(ctx, c.rdb, []string{c.key(key)},
		c.points, c.window.Milliseconds(), c.block.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("%s consume: %w", c.name, err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("%s consume: unexpected reply %v", c.name, vals)
	}
	return Result{ConsumedPoints: vals[0], MsBeforeNext: vals[1]}, nil
}

// Get reads key without consuming.  A key never consumed, or whose window
// ended, yields nil.
func (c *Counter) Get(ctx context.Context, key string) (*Result, error) {
	vals, err := getScript.Run(ctx, c.rdb, []string{c.key(key)}).Int64Slice()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s get: %w", c.name, err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("%s get: unexpected reply %v", c.name, vals)
	}
	return &Result{ConsumedPoints: vals[0], MsBeforeNext: vals[1]}, nil
}

// Reset drops key so its next point opens a new window.
func (c *Counter) Reset(ctx context.Context, key string) error {
	if err := resetScript.Run(ctx, c.rdb, []string{c.key(key)}).Err(); err != nil {
		return fmt.Errorf("%s reset: %w", c.name, err)
	}
	return nil
}

// RetrySeconds is zero unless res has used up max points; then it is the
// remaining time in whole seconds, never less than one.
func RetrySeconds(res *Result, max int) int {
	if res == nil || res.ConsumedPoints < int64(max) {
		return 0
	}
	secs := int(res.MsBeforeNext / 1000)
	if secs < 1 {
		return 1
	}
	return secs
}
