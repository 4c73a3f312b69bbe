package models

import "time"

// Group is a chat that receives the scheduled broadcast.
type Group struct {
	ChatID    int64     `json:"chat_id" db:"chat_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
