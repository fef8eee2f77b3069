package http

import "testing"

func TestRateLimiterEnforcesBudget(t *testing.T) {
	limiter := newRateLimiter(3)

	for i := 0; i < 3; i++ {
		if !limiter.allow() {
			t.Fatalf("message %d should be within budget", i+1)
		}
	}
	if limiter.allow() {
		t.Fatalf("fourth message should exceed the budget")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := newRateLimiter(0)

	for i := 0; i < 1000; i++ {
		if !limiter.allow() {
			t.Fatalf("disabled limiter must always allow")
		}
	}
}
