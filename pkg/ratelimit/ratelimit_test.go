package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowDrainsBucket(t *testing.T) {
	tb := NewTokenBucket(3, 1)
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if tb.Allow() {
		t.Fatal("empty bucket should reject")
	}
	if got := tb.Remaining(); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}
}

func TestRefill(t *testing.T) {
	tb := NewTokenBucket(1, 10)
	if !tb.Allow() {
		t.Fatal("first request should be allowed")
	}
	time.Sleep(1100 * time.Millisecond)
	if !tb.Allow() {
		t.Fatal("bucket should refill after the window elapses")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err == nil {
		t.Fatal("Wait should fail once the context expires")
	}
}
