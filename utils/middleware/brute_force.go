package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/educa-api/utils/response"
)

// AttemptStore is the slice of the Redis cache the login guard needs
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// BruteForceProtection locks an IP out of login after repeated failures
type BruteForceProtection struct {
	store AttemptStore
}

// NewBruteForceProtection creates a guard. A nil store disables it.
func NewBruteForceProtection(store AttemptStore) *BruteForceProtection {
	return &BruteForceProtection{store: store}
}

func attemptKey(ip string) string { return "brute_force:attempts:" + ip }
func lockKey(ip string) string    { return "brute_force:lock:" + ip }

// CheckAndRecordAttempt rejects requests from locked IPs with 429
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b == nil || b.store == nil {
			return c.Next()
		}

		key := lockKey(c.IP())
		locked, err := b.store.Exists(c.UserContext(), key)
		if err != nil || !locked {
			// cache trouble never blocks a login
			return c.Next()
		}

		ttl, _ := b.store.TTL(c.UserContext(), key)
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = 60
		}

		c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// RecordFailedAttempt counts a failure and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx, ip string) error {
	if b == nil || b.store == nil {
		return nil
	}
	ctx := c.UserContext()

	attempts, err := b.store.Increment(ctx, attemptKey(ip))
	if err != nil {
		return nil
	}
	if attempts == 1 {
		_ = b.store.Expire(ctx, attemptKey(ip), 15*time.Minute)
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 25:
		lockDuration = 24 * time.Hour
	case attempts >= 10:
		lockDuration = time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return nil
	}

	return b.store.Set(ctx, lockKey(ip), "locked", lockDuration)
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx, ip string) error {
	if b == nil || b.store == nil {
		return nil
	}
	return b.store.Delete(c.UserContext(), attemptKey(ip), lockKey(ip))
}
