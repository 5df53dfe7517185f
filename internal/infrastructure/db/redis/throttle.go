package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleKeyPrefix = "throttle:login:"
	throttleWindow    = 15 * time.Minute
	throttleLimit     = 5
)

// LoginThrottle counts failed sign-in attempts per email address so repeated
// password guessing can be cut off. Counters expire on their own once the
// window has passed.
type LoginThrottle struct {
	client *redis.Client
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
func NewLoginThrottle(client *redis.Client) *LoginThrottle {
	return &LoginThrottle{client: client}
}

// TooManyFailures reports whether the address has reached the attempt limit
// inside the current window.
func (t *LoginThrottle) TooManyFailures(ctx context.Context, email string) (bool, error) {
	n, err := t.client.Get(ctx, throttleKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= throttleLimit, nil
}

// RecordFailure bumps the counter. The first failure arms the window; later
// ones do not extend it, so a lockout always ends.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) error {
	key := throttleKey(email)

	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key, throttleWindow).Err(); err != nil {
			return fmt.Errorf("arm throttle window: %w", err)
		}
	}
	return nil
}

// ClearFailures drops the counter after a successful sign-in.
func (t *LoginThrottle) ClearFailures(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		return fmt.Errorf("clear login failures: %w", err)
	}
	return nil
}

func throttleKey(email string) string {
	return throttleKeyPrefix + strings.ToLower(email)
}
