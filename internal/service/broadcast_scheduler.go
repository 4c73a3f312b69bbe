package service

import (
	"context"
	"fmt"
	"time"
)

// BroadcastCallback sends the scheduled announcement to a chat.
type BroadcastCallback func(chatID int64)

// ParseClock parses an "HH:MM" time of day into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// dailyTrigger fires once per calendar day at a fixed time of day.
type dailyTrigger struct {
	at      time.Duration
	loc     *time.Location
	lastDay string
}

func newDailyTrigger(at time.Duration, loc *time.Location, now time.Time) *dailyTrigger {
	d := &dailyTrigger{at: at, loc: loc}
	// Starting after today's slot must not fire a late broadcast.
	if d.slot(now).Before(now) {
		d.lastDay = d.day(now)
	}
	return d
}

func (d *dailyTrigger) day(t time.Time) string {
	return t.In(d.loc).Format("2006-01-02")
}

func (d *dailyTrigger) slot(t time.Time) time.Time {
	local := t.In(d.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)
	return midnight.Add(d.at)
}

// due reports whether the broadcast should run at now and marks the day done.
func (d *dailyTrigger) due(now time.Time) bool {
	day := d.day(now)
	if day == d.lastDay || now.Before(d.slot(now)) {
		return false
	}
	d.lastDay = day
	return true
}

// StartBroadcastScheduler runs a background loop that checks every 30 seconds
// whether the daily broadcast is due and invokes the callback for each
// tracked group. It blocks until the context is cancelled, so it should be
// launched in a separate goroutine.
func (s *Service) StartBroadcastScheduler(ctx context.Context, at time.Duration, callback BroadcastCallback) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	trigger := newDailyTrigger(at, s.location, s.now())
	s.logger.WithField("at", at.String()).Info("Broadcast scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Broadcast scheduler stopped")
			return
		case <-ticker.C:
			if trigger.due(s.now()) {
				s.processBroadcast(callback)
			}
		}
	}
}

// processBroadcast fires the callback for every tracked group.
func (s *Service) processBroadcast(callback BroadcastCallback) {
	if s.Groups == nil {
		return
	}

	chats := s.Groups.Snapshot()
	s.logger.WithField("groups", len(chats)).Info("Sending scheduled broadcast")
	for _, chatID := range chats {
		callback(chatID)
	}
}
