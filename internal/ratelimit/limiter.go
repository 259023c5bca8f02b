// Package ratelimit throttles flash writes per session using a Redis
// INCR + EXPIRE fixed window.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a rate limiting policy: the Redis key prefix, maximum number of
// requests allowed in the window, and the window duration.
type Rule struct {
	Key    string        // Redis key prefix, e.g. "rl:flash:"
	Limit  int           // max count in the window
	Window time.Duration // time window
}

// RuleFlash allows 30 flash writes per minute per session.
var RuleFlash = Rule{Key: "rl:flash:", Limit: 30, Window: 1 * time.Minute}

// Limiter performs rate limiting checks for one rule against Redis.
type Limiter struct {
	client *redis.Client
	rule   Rule
}

// NewLimiter creates a Limiter enforcing rule, backed by the given client.
func NewLimiter(client *redis.Client, rule Rule) *Limiter {
	return &Limiter{client: client, rule: rule}
}

// Rule returns the policy this limiter enforces.
func (l *Limiter) Rule() Rule {
	return l.rule
}

// Allow increments the counter for identifier and reports whether it is still
// within the limit. The window starts on the first increment.
//
// On Redis errors the method fails open (returns true) so that a Redis outage
// does not block flash writes; the error is still returned for logging.
func (l *Limiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := l.rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("[ratelimit] redis INCR error key=%s: %v (failing open)", key, err)
		return true, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.rule.Window).Err(); err != nil {
			log.Printf("[ratelimit] redis EXPIRE error key=%s: %v (failing open)", key, err)
			// Without a TTL the counter would never reset.
			l.client.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= l.rule.Limit, nil
}

// Remaining returns how many writes identifier has left in the current
// window. Returns the full limit if no window is open or on Redis errors.
func (l *Limiter) Remaining(ctx context.Context, identifier string) (int, error) {
	key := l.rule.Key + identifier

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return l.rule.Limit, nil
	}
	if err != nil {
		log.Printf("[ratelimit] redis GET error key=%s: %v (failing open)", key, err)
		return l.rule.Limit, err
	}

	return max(l.rule.Limit-count, 0), nil
}

// RetryAfter returns how long until the identifier's window resets, or zero
// if no window is open.
func (l *Limiter) RetryAfter(ctx context.Context, identifier string) time.Duration {
	ttl, err := l.client.TTL(ctx, l.rule.Key+identifier).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}
