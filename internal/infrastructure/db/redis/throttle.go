package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleWindow      = 15 * time.Minute
	throttleMaxAttempts = 10
)

// SigninThrottle caps signin attempts per email address, backed by Redis.
// Key format: signin_attempts:<email>. It guards the transport layer
// against credential stuffing; core signin semantics are untouched.
type SigninThrottle struct {
	client *redis.Client
}

// NewSigninThrottle creates a SigninThrottle wrapping the given client.
func NewSigninThrottle(client *redis.Client) *SigninThrottle {
	return &SigninThrottle{client: client}
}

// Allow records one attempt for email and reports whether the caller is
// still inside the window budget. The counter expires throttleWindow after
// the first attempt.
func (t *SigninThrottle) Allow(ctx context.Context, email string) (bool, error) {
	key := t.key(email)

	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("signin throttle: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, key, throttleWindow).Err(); err != nil {
			return false, fmt.Errorf("signin throttle expire: %w", err)
		}
	}
	return n <= throttleMaxAttempts, nil
}

// Clear resets the counter after a successful signin.
func (t *SigninThrottle) Clear(ctx context.Context, email string) error {
	return t.client.Del(ctx, t.key(email)).Err()
}

func (t *SigninThrottle) key(email string) string {
	return "signin_attempts:" + strings.ToLower(email)
}
