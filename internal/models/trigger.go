package models

import "time"

// TriggerEvent records that an announcement was fired in a group.
type TriggerEvent struct {
	ID        int64     `json:"id" db:"id"`
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HistoryEntry is a trigger event resolved against the roster.
type HistoryEntry struct {
	CreatedAt   time.Time `json:"created_at"`
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
}
