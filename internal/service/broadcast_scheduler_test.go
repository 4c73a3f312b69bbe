package service

import (
	"context"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	got, err := ParseClock("09:30")
	if err != nil || got != 9*time.Hour+30*time.Minute {
		t.Fatalf("unexpected %v, %v", got, err)
	}
	if _, err := ParseClock("9.30"); err == nil {
		t.Fatal("expected error for malformed clock")
	}
}

func TestDailyTriggerFiresOncePerDay(t *testing.T) {
	at := 9 * time.Hour
	start := time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC)
	d := newDailyTrigger(at, time.UTC, start)

	if d.due(start.Add(59 * time.Minute)) {
		t.Fatal("fired before the slot")
	}
	if !d.due(start.Add(time.Hour)) {
		t.Fatal("did not fire at the slot")
	}
	if d.due(start.Add(2 * time.Hour)) {
		t.Fatal("fired twice on the same day")
	}
	if !d.due(start.Add(25 * time.Hour)) {
		t.Fatal("did not fire on the next day")
	}
}

func TestDailyTriggerSkipsMissedSlotAtStartup(t *testing.T) {
	start := time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)
	d := newDailyTrigger(9*time.Hour, time.UTC, start)

	if d.due(start.Add(time.Minute)) {
		t.Fatal("fired for a slot that passed before startup")
	}
	if !d.due(time.Date(2024, 5, 16, 9, 0, 30, 0, time.UTC)) {
		t.Fatal("did not fire on the following day")
	}
}

func TestProcessBroadcastCallsEveryTrackedGroup(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for _, id := range []int64{-2, -1} {
		if _, err := svc.Groups.Track(ctx, id); err != nil {
			t.Fatalf("track: %v", err)
		}
	}

	var got []int64
	svc.processBroadcast(func(chatID int64) { got = append(got, chatID) })
	if len(got) != 2 || got[0] != -2 || got[1] != -1 {
		t.Fatalf("unexpected broadcast targets %v", got)
	}
}
