package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "test-key")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "test-key")
	rl.Check(ctx, "test-key")
	result := rl.Check(ctx, "test-key")

	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	r1 := rl.Check(ctx, "key-a")
	r2 := rl.Check(ctx, "key-b")

	assert.True(t, r1.Allowed)
	assert.True(t, r2.Allowed)
}

func TestIdempotencyGuard_FirstUseAllowed(t *testing.T) {
	ig := NewIdempotencyGuard()
	result := ig.Check(context.Background(), "req-1")
	assert.True(t, result.Allowed)
}

func TestIdempotencyGuard_DuplicateBlocked(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	ig.Check(ctx, "req-1")
	result := ig.Check(ctx, "req-1")

	assert.False(t, result.Allowed)
	assert.Equal(t, "idempotency", result.Guard)
}

func TestIdempotencyGuard_EmptyKeyAlwaysAllowed(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	assert.True(t, ig.Check(ctx, "").Allowed)
	assert.True(t, ig.Check(ctx, "").Allowed)
}

func TestIdempotencyGuard_RemoveAllowsRetry(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	ig.Check(ctx, "req-1")
	ig.Remove("req-1")
	result := ig.Check(ctx, "req-1")
	assert.True(t, result.Allowed)
}

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(3, 5*time.Second)
	result := cb.Check(context.Background(), "engage.streak.broken")
	assert.True(t, result.Allowed)
}

func TestCircuitBreaker_OpensOnThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.Check(ctx, "engage.streak.broken")
	cb.RecordFailure("engage.streak.broken")
	cb.RecordFailure("engage.streak.broken")

	result := cb.Check(ctx, "engage.streak.broken")
	assert.False(t, result.Allowed)
	assert.Equal(t, "circuit_breaker", result.Guard)
}

func TestCircuitBreaker_KeysIndependent(t *testing.T) {
	cb := NewCircuitBreaker(1, 5*time.Second)
	ctx := context.Background()

	cb.Check(ctx, "topic-a")
	cb.RecordFailure("topic-a")

	assert.False(t, cb.Check(ctx, "topic-a").Allowed)
	assert.True(t, cb.Check(ctx, "topic-b").Allowed)
}

func TestCircuitBreaker_HalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	ctx := context.Background()

	cb.Check(ctx, "topic-a")
	cb.RecordFailure("topic-a")
	assert.False(t, cb.Check(ctx, "topic-a").Allowed)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Check(ctx, "topic-a").Allowed)

	cb.RecordSuccess("topic-a")
	assert.True(t, cb.Check(ctx, "topic-a").Allowed)
}
