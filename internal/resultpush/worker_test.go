package resultpush

import (
	"context"
	"testing"
	"time"

	"matchhub/internal/resultpush/platforms"
)

func startWithFake(t *testing.T, cfg Config, fake *fakeAdapter) *Manager {
	t.Helper()
	m := NewManager(cfg)
	m.adapters = map[string]platforms.Adapter{"fake": fake}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}
	return m
}

func testJob() pushJob {
	return pushJob{
		Target:    PushTarget{Platform: "fake", Endpoint: "https://example.com", Scope: "all", Enabled: true},
		Event:     MatchEvent{EventType: EventMatchStarted, SessionID: "ses_1"},
		Formatted: FormattedMessage{Title: "x", Description: "y"},
	}
}

func TestRetryThenSuccess(t *testing.T) {
	fake := &fakeAdapter{failFirst: 1}
	m := startWithFake(t, Config{Enabled: true, Workers: 1, RetryMax: 2, RetryBase: 5 * time.Millisecond}, fake)
	if !m.enqueue(testJob()) {
		t.Fatal("enqueue failed")
	}
	if !waitFor(t, 500*time.Millisecond, func() bool { return fake.Calls() >= 2 }) {
		t.Fatalf("expected a retry, got %d calls", fake.Calls())
	}
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	fake := &fakeAdapter{forceFail: true}
	m := startWithFake(t, Config{Enabled: true, Workers: 1, RetryMax: 1, RetryBase: 5 * time.Millisecond, FailureThreshold: 10}, fake)
	if !m.enqueue(testJob()) {
		t.Fatal("enqueue failed")
	}
	time.Sleep(120 * time.Millisecond)
	if got := fake.Calls(); got != 2 {
		t.Fatalf("expected 2 calls (initial + 1 retry), got %d", got)
	}
}

func TestCircuitOpenSkipsSubsequentSends(t *testing.T) {
	fake := &fakeAdapter{forceFail: true}
	m := startWithFake(t, Config{
		Enabled:             true,
		Workers:             1,
		RetryMax:            0,
		RetryBase:           5 * time.Millisecond,
		FailureThreshold:    1,
		CircuitOpenDuration: 500 * time.Millisecond,
	}, fake)

	job := testJob()
	if !m.enqueue(job) {
		t.Fatal("enqueue first failed")
	}
	time.Sleep(40 * time.Millisecond)
	if !m.enqueue(job) {
		t.Fatal("enqueue second failed")
	}
	time.Sleep(80 * time.Millisecond)
	if got := fake.Calls(); got != 1 {
		t.Fatalf("expected 1 call due to circuit open, got %d", got)
	}
}

func TestBreakerResetsOnSuccess(t *testing.T) {
	m := NewManager(Config{FailureThreshold: 2, CircuitOpenDuration: time.Minute})
	now := time.Now()
	m.afterFailure("k", now)
	m.afterSuccess("k")
	m.afterFailure("k", now)
	if err := m.beforeSend("k", now); err != nil {
		t.Fatalf("breaker should still be closed: %v", err)
	}
	m.afterFailure("k", now)
	if err := m.beforeSend("k", now); err != errCircuitOpen {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if err := m.beforeSend("k", now.Add(2*time.Minute)); err != nil {
		t.Fatalf("breaker should close after the open window: %v", err)
	}
}
