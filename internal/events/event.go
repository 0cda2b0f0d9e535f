// Package events dispatches best-effort side effects (audit notifications,
// enrichment) off the request path.
package events

import (
	"time"

	"carkeeper/internal/model"
)

type Type string

const (
	ReminderCreated Type = "reminder.created"
	ReminderUpdated Type = "reminder.updated"
	ReminderDeleted Type = "reminder.deleted"
)

// Event is an audit record for a reminder change.
type Event struct {
	Type       Type                 `json:"type"`
	ReminderID string               `json:"reminderId"`
	UserID     uint                 `json:"userId"`
	CarID      string               `json:"carId"`
	Category   string               `json:"category,omitempty"`
	Status     model.ReminderStatus `json:"status,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	At         time.Time            `json:"at"`
}

// ReminderEvent builds an event describing r.
func ReminderEvent(t Type, r model.Reminder, reason string, at time.Time) Event {
	return Event{
		Type:       t,
		ReminderID: r.ID,
		UserID:     r.UserID,
		CarID:      r.CarID,
		Category:   r.Category,
		Status:     r.Status,
		Reason:     reason,
		At:         at,
	}
}
