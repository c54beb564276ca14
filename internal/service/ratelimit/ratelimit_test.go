package ratelimit

import (
	"testing"
	"time"
)

func TestReserveUnderLimit(t *testing.T) {
	l := New(time.Hour)
	for i := 0; i < 5; i++ {
		if wait := l.Reserve("bot-1", 5); wait != 0 {
			t.Fatalf("expected zero wait on event %d, got %v", i, wait)
		}
	}
	if got := l.Count("bot-1"); got != 5 {
		t.Fatalf("expected 5 events, got %d", got)
	}
}

func TestReserveReturnsWaitAtCap(t *testing.T) {
	l := New(time.Hour)
	l.Reserve("bot-1", 1)
	wait := l.Reserve("bot-1", 1)
	if wait <= 0 {
		t.Fatalf("expected positive wait, got %v", wait)
	}
	if wait > time.Hour {
		t.Fatalf("wait exceeds window: %v", wait)
	}
	// the denied attempt must not be recorded
	if got := l.Count("bot-1"); got != 1 {
		t.Fatalf("expected 1 event, got %d", got)
	}
}

func TestEventsAgeOut(t *testing.T) {
	l := New(50 * time.Millisecond)
	l.Reserve("bot-1", 1)
	time.Sleep(60 * time.Millisecond)
	if wait := l.Reserve("bot-1", 1); wait != 0 {
		t.Fatalf("expected zero wait after window elapsed, got %v", wait)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(time.Hour)
	l.Reserve("bot-1", 1)
	if wait := l.Reserve("bot-2", 1); wait != 0 {
		t.Fatalf("expected independent key, got wait %v", wait)
	}
}

func TestZeroLimitDisables(t *testing.T) {
	l := New(time.Hour)
	for i := 0; i < 100; i++ {
		if wait := l.Reserve("bot-1", 0); wait != 0 {
			t.Fatalf("expected unlimited with zero limit")
		}
	}
}

func TestForget(t *testing.T) {
	l := New(time.Hour)
	l.Reserve("bot-1", 1)
	l.Forget("bot-1")
	if got := l.Count("bot-1"); got != 0 {
		t.Fatalf("expected empty after forget, got %d", got)
	}
}
