package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Kerhoff/SmokeBot/internal/models"
)

// ErrConstraint marks a write rejected by a uniqueness or key constraint.
var ErrConstraint = errors.New("constraint violation")

// RosterRepository defines the interface for participant roster operations
type RosterRepository interface {
	// UpsertSighting inserts a subscribed participant or refreshes the
	// display name of an existing one. created reports a first insertion.
	UpsertSighting(ctx context.Context, userID int64, displayName string) (created bool, err error)
	// SetSubscription updates the flag of a known participant. Unknown
	// participants are left alone and updated is false.
	SetSubscription(ctx context.Context, userID int64, subscribed bool) (updated bool, err error)
	IsSubscribed(ctx context.Context, userID int64) (bool, error)
	GetByID(ctx context.Context, userID int64) (*models.Participant, error)
	ListSubscribed(ctx context.Context) ([]*models.Participant, error)
}

// TriggerRepository defines the interface for the append-only trigger log
type TriggerRepository interface {
	Record(ctx context.Context, chatID, userID int64, at time.Time) (*models.TriggerEvent, error)
	CountInRange(ctx context.Context, chatID int64, r models.TimeRange) (int, error)
	History(ctx context.Context, chatID int64, r models.TimeRange, limit int) ([]*models.HistoryEntry, error)
}

// LedgerRepository defines the interface for participation toggles
type LedgerRepository interface {
	// Toggle flips the participation of userID in one announcement as a
	// single atomic operation.
	Toggle(ctx context.Context, userID, chatID, eventID int64, at time.Time) (models.JoinedState, error)
	// ListParticipants returns the joined participants in join order.
	ListParticipants(ctx context.Context, chatID, eventID int64) ([]*models.Participant, error)
	// Leaderboard ranks participants by joined announcements inside r.
	// A limit <= 0 means no limit.
	Leaderboard(ctx context.Context, chatID int64, r models.TimeRange, limit int) ([]*models.LeaderboardEntry, error)
}

// GroupRepository defines the interface for groups tracked by the scheduled broadcast
type GroupRepository interface {
	Add(ctx context.Context, chatID int64) (added bool, err error)
	Remove(ctx context.Context, chatID int64) (removed bool, err error)
	List(ctx context.Context) ([]*models.Group, error)
}
