package service

import (
	"context"

	"github.com/Kerhoff/SmokeBot/internal/models"
)

// ResolveWindow maps any window value onto a known one. Unknown values fall
// back to models.DefaultWindow instead of failing.
func ResolveWindow(w models.Window) models.Window {
	resolved, _ := models.ParseWindow(string(w))
	return resolved
}

func (s *Service) rangeFor(w models.Window) models.TimeRange {
	return ResolveWindow(w).Range(s.now(), s.location)
}

// CountInWindow counts trigger events of a group inside the window.
func (s *Service) CountInWindow(ctx context.Context, chatID int64, w models.Window) (int, error) {
	return s.Triggers.CountInRange(ctx, chatID, s.rangeFor(w))
}

// Stats counts trigger events of a group for every window.
func (s *Service) Stats(ctx context.Context, chatID int64) ([]models.WindowCount, error) {
	stats := make([]models.WindowCount, 0, len(models.Windows))
	for _, w := range models.Windows {
		n, err := s.CountInWindow(ctx, chatID, w)
		if err != nil {
			return nil, err
		}
		stats = append(stats, models.WindowCount{Window: w, Label: w.Label(), Count: n})
	}
	return stats, nil
}

// Leaderboard ranks the group's participants by how many announcements they
// joined inside the window. Ties are ordered by user id. A limit <= 0 returns
// every row.
func (s *Service) Leaderboard(ctx context.Context, chatID int64, w models.Window, limit int) ([]*models.LeaderboardEntry, error) {
	return s.Ledger.Leaderboard(ctx, chatID, s.rangeFor(w), limit)
}

// TopSingle returns the leading participant of the window, or nil when the
// window holds no trigger events or nobody joined.
func (s *Service) TopSingle(ctx context.Context, chatID int64, w models.Window) (*models.LeaderboardEntry, error) {
	triggers, err := s.CountInWindow(ctx, chatID, w)
	if err != nil {
		return nil, err
	}
	if triggers == 0 {
		return nil, nil
	}

	entries, err := s.Leaderboard(ctx, chatID, w, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || entries[0].Count == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// History lists the group's trigger events inside the window, newest first.
func (s *Service) History(ctx context.Context, chatID int64, w models.Window, limit int) ([]*models.HistoryEntry, error) {
	return s.Triggers.History(ctx, chatID, s.rangeFor(w), limit)
}
