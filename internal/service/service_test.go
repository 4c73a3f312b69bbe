package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kerhoff/SmokeBot/internal/models"
	"github.com/Kerhoff/SmokeBot/internal/repository"
	"github.com/Kerhoff/SmokeBot/internal/repository/sqlstore"
	"github.com/Kerhoff/SmokeBot/internal/testkit"
	"github.com/Kerhoff/SmokeBot/pkg/logger"
)

var fixedNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, now func() time.Time) *Service {
	t.Helper()

	db := testkit.OpenDatabase(t)
	log := logger.Discard()
	groups := NewGroupRegistry(sqlstore.NewGroupRepository(db.DB, db.Dialect), log)

	return New(log, nil,
		sqlstore.NewRosterRepository(db.DB, db.Dialect),
		sqlstore.NewTriggerRepository(db.DB, db.Dialect),
		sqlstore.NewLedgerRepository(db.DB, db.Dialect),
		groups,
		Options{Now: now},
	)
}

func TestAnnouncementFlow(t *testing.T) {
	svc := newTestService(t, func() time.Time { return fixedNow })
	ctx := context.Background()

	for _, p := range []struct {
		id   int64
		name string
	}{{1, "@one"}, {2, "@two"}, {3, "@three"}} {
		if err := svc.CaptureParticipant(ctx, p.id, p.name); err != nil {
			t.Fatalf("capture %d: %v", p.id, err)
		}
	}

	subscribed, err := svc.ListSubscribed(ctx)
	if err != nil || len(subscribed) != 3 {
		t.Fatalf("expected 3 subscribed participants, got %d, %v", len(subscribed), err)
	}

	event, err := svc.RecordTrigger(ctx, 42, 1)
	if err != nil {
		t.Fatalf("record trigger: %v", err)
	}

	steps := []struct {
		user int64
		want models.JoinedState
	}{
		{2, models.StateJoined},
		{3, models.StateJoined},
		{2, models.StateLeft},
	}
	for _, s := range steps {
		got, err := svc.Toggle(ctx, s.user, 42, event.ID)
		if err != nil || got != s.want {
			t.Fatalf("toggle user %d: got %q, %v; want %q", s.user, got, err, s.want)
		}
	}

	participants, err := svc.ListParticipants(ctx, 42, event.ID)
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(participants) != 1 || participants[0].ID != 3 {
		t.Fatalf("expected only participant 3, got %+v", participants)
	}

	board, err := svc.Leaderboard(ctx, 42, models.WindowToday, DefaultLeaderboardLimit)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].DisplayName != "@three" || board[0].Count != 1 || board[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", board)
	}

	n, err := svc.CountInWindow(ctx, 42, models.WindowToday)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 trigger today, got %d, %v", n, err)
	}
}

func TestWeekWindowBoundary(t *testing.T) {
	svc := newTestService(t, func() time.Time { return fixedNow })
	ctx := context.Background()

	edge := fixedNow.Add(-7 * 24 * time.Hour)
	skewed := fixedNow.Add(time.Hour)
	for _, at := range []time.Time{edge, edge.Add(-time.Millisecond), fixedNow, skewed} {
		if _, err := svc.Triggers.Record(ctx, 42, 1, at); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	week, err := svc.CountInWindow(ctx, 42, models.WindowWeek)
	if err != nil || week != 2 {
		t.Fatalf("expected 2 triggers in week, got %d, %v", week, err)
	}
	month, err := svc.CountInWindow(ctx, 42, models.WindowMonth)
	if err != nil || month != 3 {
		t.Fatalf("expected 3 triggers in month, got %d, %v", month, err)
	}
	all, err := svc.CountInWindow(ctx, 42, models.WindowAll)
	if err != nil || all != 4 {
		t.Fatalf("expected 4 triggers overall, got %d, %v", all, err)
	}
}

func TestUnknownWindowFallsBackToWeek(t *testing.T) {
	svc := newTestService(t, func() time.Time { return fixedNow })
	ctx := context.Background()

	if _, err := svc.Triggers.Record(ctx, 42, 1, fixedNow.Add(-10*24*time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.Triggers.Record(ctx, 42, 1, fixedNow.Add(-time.Hour)); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := svc.CountInWindow(ctx, 42, models.Window("fortnight"))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	want, err := svc.CountInWindow(ctx, 42, models.WindowWeek)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if got != want || got != 1 {
		t.Fatalf("expected fallback count %d to equal week count %d (1)", got, want)
	}
}

func TestTodayUsesCalendarDayInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 23:30 local on May 15th.
	now := time.Date(2024, 5, 15, 20, 30, 0, 0, time.UTC)

	svc := newTestService(t, func() time.Time { return now })
	svc.location = loc
	ctx := context.Background()

	// 23:59 local on May 14th and 00:00 local on May 15th.
	if _, err := svc.Triggers.Record(ctx, 42, 1, time.Date(2024, 5, 14, 20, 59, 0, 0, time.UTC)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.Triggers.Record(ctx, 42, 1, time.Date(2024, 5, 14, 21, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("record: %v", err)
	}

	n, err := svc.CountInWindow(ctx, 42, models.WindowToday)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 trigger today, got %d, %v", n, err)
	}
}

func TestStatsCoversEveryWindow(t *testing.T) {
	svc := newTestService(t, func() time.Time { return fixedNow })
	ctx := context.Background()

	for _, age := range []time.Duration{time.Hour, 3 * 24 * time.Hour, 20 * 24 * time.Hour, 90 * 24 * time.Hour} {
		if _, err := svc.Triggers.Record(ctx, 42, 1, fixedNow.Add(-age)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	stats, err := svc.Stats(ctx, 42)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := map[models.Window]int{
		models.WindowToday: 1,
		models.WindowWeek:  2,
		models.WindowMonth: 3,
		models.WindowAll:   4,
	}
	if len(stats) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(stats))
	}
	for _, s := range stats {
		if s.Count != want[s.Window] {
			t.Fatalf("window %s: expected %d, got %d", s.Window, want[s.Window], s.Count)
		}
	}
}

func TestTopSingle(t *testing.T) {
	svc := newTestService(t, func() time.Time { return fixedNow })
	ctx := context.Background()

	top, err := svc.TopSingle(ctx, 42, models.WindowWeek)
	if err != nil || top != nil {
		t.Fatalf("expected no top participant without triggers, got %+v, %v", top, err)
	}

	event, err := svc.RecordTrigger(ctx, 42, 1)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	top, err = svc.TopSingle(ctx, 42, models.WindowWeek)
	if err != nil || top != nil {
		t.Fatalf("expected no top participant without joins, got %+v, %v", top, err)
	}

	for _, user := range []int64{7, 5} {
		if _, err := svc.Toggle(ctx, user, 42, event.ID); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}
	top, err = svc.TopSingle(ctx, 42, models.WindowWeek)
	if err != nil || top == nil {
		t.Fatalf("expected a top participant, got %v", err)
	}
	if top.UserID != 5 || top.DisplayName != models.UnknownName {
		t.Fatalf("expected tie broken by user id with unknown name, got %+v", top)
	}
}

func TestSetSubscriptionUnknownParticipant(t *testing.T) {
	svc := newTestService(t, func() time.Time { return fixedNow })
	ctx := context.Background()

	updated, err := svc.SetSubscription(ctx, 99, false)
	if err != nil || updated {
		t.Fatalf("expected no-op for unknown participant, got %v, %v", updated, err)
	}
	if p, err := svc.Roster.GetByID(ctx, 99); err != nil || p != nil {
		t.Fatalf("expected no participant to be created, got %+v, %v", p, err)
	}

	if err := svc.CaptureParticipant(ctx, 99, "  "); err != nil {
		t.Fatalf("capture: %v", err)
	}
	updated, err = svc.SetSubscription(ctx, 99, false)
	if err != nil || !updated {
		t.Fatalf("expected update, got %v, %v", updated, err)
	}
	subscribed, err := svc.IsSubscribed(ctx, 99)
	if err != nil || subscribed {
		t.Fatalf("expected unsubscribed, got %v, %v", subscribed, err)
	}

	p, err := svc.Roster.GetByID(ctx, 99)
	if err != nil || p == nil || p.DisplayName != models.UnknownName {
		t.Fatalf("expected placeholder name, got %+v, %v", p, err)
	}
}

type failingRoster struct {
	repository.RosterRepository
	err error
}

func (f failingRoster) UpsertSighting(context.Context, int64, string) (bool, error) {
	return false, f.err
}

func TestCaptureParticipantSwallowsConstraintViolation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	svc.Roster = failingRoster{err: errors.Join(errors.New("insert"), repository.ErrConstraint)}
	if err := svc.CaptureParticipant(ctx, 1, "@one"); err != nil {
		t.Fatalf("expected constraint violation to be swallowed, got %v", err)
	}

	boom := errors.New("disk full")
	svc.Roster = failingRoster{err: boom}
	if err := svc.CaptureParticipant(ctx, 1, "@one"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	svc := newTestService(t, func() time.Time { return fixedNow })
	ctx := context.Background()

	if err := svc.CaptureParticipant(ctx, 2, "@two"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	for i, user := range []int64{1, 2} {
		at := fixedNow.Add(time.Duration(i-2) * time.Hour)
		if _, err := svc.Triggers.Record(ctx, 42, user, at); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	history, err := svc.History(ctx, 42, models.WindowToday, DefaultHistoryLimit)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].UserID != 2 || history[0].DisplayName != "@two" {
		t.Fatalf("unexpected newest entry %+v", history[0])
	}
	if history[1].DisplayName != models.UnknownName {
		t.Fatalf("expected unknown name for missing participant, got %q", history[1].DisplayName)
	}
}
