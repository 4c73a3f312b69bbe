package models

import "strings"

// Participant is a roster entry. ID is the Telegram user id and is unique
// across every tracked group.
type Participant struct {
	ID          int64  `json:"id" db:"user_id"`
	DisplayName string `json:"display_name" db:"mention_name"`
	Subscribed  bool   `json:"subscribed" db:"is_active"`
}

// UnknownName is shown for participants whose roster row is missing.
const UnknownName = "unknown"

// DisplayNameFor builds the roster display name from Telegram profile fields.
// A username wins over the real name because it is stable and unambiguous.
func DisplayNameFor(username, firstName, lastName string) string {
	if username = strings.TrimSpace(username); username != "" {
		return "@" + username
	}
	full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if full == "" {
		return UnknownName
	}
	return full
}
