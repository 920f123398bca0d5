package models

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCompleted EventStatus = "completed"
)

type Event struct {
	ID              string      `json:"id" db:"id"`
	Title           string      `json:"title" db:"title"`
	Description     *string     `json:"description" db:"description"`
	StartAt         time.Time   `json:"start_at" db:"start_at"`
	EndAt           *time.Time  `json:"end_at" db:"end_at"`
	Location        *string     `json:"location" db:"location"`
	Category        *string     `json:"category" db:"category"`
	Status          EventStatus `json:"status" db:"status"`
	CreatedBy       string      `json:"created_by" db:"created_by"`
	Guests          []string    `json:"guests" db:"guests"`
	RegisteredUsers []string    `json:"registered_users,omitempty"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// EventInfo is the read-only slice of an event the reminder worker needs to
// build message content.
type EventInfo struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
}
