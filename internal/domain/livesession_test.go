package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{SessionStatusScheduled, SessionStatusLive, true},
		{SessionStatusScheduled, SessionStatusCancelled, true},
		{SessionStatusScheduled, SessionStatusCompleted, false},
		{SessionStatusLive, SessionStatusCompleted, true},
		{SessionStatusLive, SessionStatusCancelled, false},
		{SessionStatusLive, SessionStatusScheduled, false},
		{SessionStatusCompleted, SessionStatusLive, false},
		{SessionStatusCompleted, SessionStatusScheduled, false},
		{SessionStatusCancelled, SessionStatusLive, false},
		{SessionStatusCancelled, SessionStatusCancelled, false},
	}
	for _, tc := range cases {
		session := &LiveSession{Status: tc.from}
		if got := session.CanTransition(tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		SessionStatusScheduled: false,
		SessionStatusLive:      false,
		SessionStatusCompleted: true,
		SessionStatusCancelled: true,
	} {
		session := &LiveSession{Status: status}
		if got := session.IsTerminal(); got != want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestReminderTimes(t *testing.T) {
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	times := ReminderTimes(start)

	if len(times) != 3 {
		t.Fatalf("reminder count = %d, want 3", len(times))
	}
	if got := times[ReminderOffset24h]; !got.Equal(start.Add(-24 * time.Hour)) {
		t.Fatalf("24h reminder at %v", got)
	}
	if got := times[ReminderOffset1h]; !got.Equal(start.Add(-time.Hour)) {
		t.Fatalf("1h reminder at %v", got)
	}
	if got := times[ReminderOffset15min]; !got.Equal(start.Add(-15 * time.Minute)) {
		t.Fatalf("15min reminder at %v", got)
	}
}
