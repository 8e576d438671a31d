package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestMemoryRateLimiter_SlidingWindow(t *testing.T) {
	l := NewMemoryRateLimiter(time.Minute, 2).(*memoryRateLimiter)
	base := time.Now()
	l.now = func() time.Time { return base }

	if !l.Allow("1.2.3.4") || !l.Allow("1.2.3.4") {
		t.Fatalf("expected first two calls allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("expected third call denied")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatalf("expected other keys unaffected")
	}

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if !l.Allow("1.2.3.4") {
		t.Fatalf("expected allow after window passes")
	}
}

func TestMemoryRateLimiter_DropsStaleKeys(t *testing.T) {
	l := NewMemoryRateLimiter(time.Minute, 5).(*memoryRateLimiter)
	base := time.Now()
	l.now = func() time.Time { return base }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !l.Allow(ip) {
			t.Fatalf("expected %s allowed", ip)
		}
	}
	if got := l.size(); got != 3 {
		t.Fatalf("expected 3 tracked keys, got %d", got)
	}

	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !l.Allow("10.0.0.9") {
		t.Fatalf("expected new key allowed")
	}
	if got := l.size(); got != 1 {
		t.Fatalf("expected stale keys removed, got %d tracked", got)
	}
}

func TestRedisRateLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisRateLimiter
		if !l.Allow("1.2.3.4") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 1}, window: time.Minute, max: 3, prefix: "resume:rl:"}
		if l.Allow("   ") {
			t.Fatalf("expected empty key to be rejected")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisRateLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "resume:rl:"}
		if !l.Allow(" Client-A ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "resume:rl:client-a" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "resume:rl:"}
		if l.Allow("client-a") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisRateLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "resume:rl:"}
		if !l.Allow("client-a") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}
