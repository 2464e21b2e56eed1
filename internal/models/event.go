package models

import "time"

// Event represents a recorded account activity.
type Event struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Type      string    `json:"type"` // e.g., "session.login", "account.verify"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
