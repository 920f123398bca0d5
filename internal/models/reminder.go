package models

import "time"

type ReminderStatus string

const (
	ReminderScheduled ReminderStatus = "scheduled"
	ReminderSent      ReminderStatus = "sent"
	ReminderFailed    ReminderStatus = "failed"
)

type ReminderChannel string

// Email is the only delivery channel for now.
const ChannelEmail ReminderChannel = "email"

// Reminder is one scheduled notification for one (event, recipient) pair at
// one lead time. SendAt never changes after creation; Status moves from
// scheduled to sent or failed exactly once and is terminal after that.
type Reminder struct {
	ID        string          `json:"id" db:"id"`
	EventID   string          `json:"event_id" db:"event_id"`
	Recipient string          `json:"recipient" db:"recipient"`
	Channel   ReminderChannel `json:"channel" db:"channel"`
	SendAt    time.Time       `json:"send_at" db:"send_at"`
	Status    ReminderStatus  `json:"status" db:"status"`
	Error     *string         `json:"error,omitempty" db:"error"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
