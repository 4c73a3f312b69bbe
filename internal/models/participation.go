package models

import "time"

// JoinedState is the outcome of a toggle.
type JoinedState string

const (
	StateJoined JoinedState = "joined"
	StateLeft   JoinedState = "left"
)

// ParticipationRecord marks a participant as joined to one announcement.
// The row existing is the joined state; there is no "left" row.
type ParticipationRecord struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}
