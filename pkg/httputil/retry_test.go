package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSleep records requested delays and returns immediately.
func fakeSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleep
	sleep = func(d time.Duration) <-chan time.Time {
		delays = append(delays, d)
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	fakeSleep(t)
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	delays := fakeSleep(t)
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("connection refused"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d waits, got %d", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("wait %d = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	fakeSleep(t)
	calls := 0
	transient := Retryable(errors.New("timeout"))
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected last transient error, got %v", err)
	}
	if calls != DefaultAttempts {
		t.Errorf("expected %d calls, got %d", DefaultAttempts, calls)
	}
}

func TestRetry_PermanentFailsImmediately(t *testing.T) {
	fakeSleep(t)
	calls := 0
	permanent := errors.New("bad request")
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call for a permanent error, got %d", calls)
	}
}

func TestRetry_DelayCapped(t *testing.T) {
	delays := fakeSleep(t)
	calls := 0
	err := Retry(context.Background(), 6, 8*time.Second, func() error {
		calls++
		return Retryable(errors.New("still down"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	// 8s, 16s, then capped at 30s for the rest.
	want := []time.Duration{8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d waits, got %d", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("wait %d = %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	orig := sleep
	sleep = func(d time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time) // never fires; ctx.Done wins
	}
	t.Cleanup(func() { sleep = orig })

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errors.New("flaky"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error should not be retryable")
	}
	if !IsRetryable(Retryable(errors.New("wrapped"))) {
		t.Error("wrapped error should be retryable")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
