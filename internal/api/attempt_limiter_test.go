package api

import (
	"testing"
	"time"
)

func TestAttemptLimiterWindowAndReset(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter(1, time.Hour)
	key := "127.0.0.1"
	now := time.Now().UTC()

	limiter.addFailure(key, now.Add(-2*time.Hour))
	if limiter.tooManyRecent(key, now) {
		t.Fatal("expected old attempt to be pruned from active window")
	}

	limiter.addFailure(key, now.Add(-30*time.Minute))
	if !limiter.tooManyRecent(key, now) {
		t.Fatal("expected one recent attempt to hit limit 1")
	}
	if wait := limiter.retryAfter(key, now); wait != 30*time.Minute {
		t.Fatalf("expected retry after 30m, got %s", wait)
	}

	limiter.reset(key)
	if limiter.tooManyRecent(key, now) {
		t.Fatal("expected no attempts after reset")
	}
	if wait := limiter.retryAfter(key, now); wait != 0 {
		t.Fatalf("expected no wait after reset, got %s", wait)
	}
}

func TestAttemptLimiterDefaults(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter(0, 0)
	if limiter.limit != defaultLoginAttemptLimit || limiter.window != defaultLoginAttemptWindow {
		t.Fatalf("unexpected defaults limit=%d window=%s", limiter.limit, limiter.window)
	}
}
