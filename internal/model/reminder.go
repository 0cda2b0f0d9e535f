package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderKind selects which trigger(s) a reminder uses.
type ReminderKind string

const (
	KindTime     ReminderKind = "time"
	KindDistance ReminderKind = "distance"
	KindBoth     ReminderKind = "both"
)

func (k ReminderKind) Valid() bool {
	switch k {
	case KindTime, KindDistance, KindBoth:
		return true
	}
	return false
}

// UsesTime reports whether the calendar trigger participates in evaluation.
func (k ReminderKind) UsesTime() bool { return k == KindTime || k == KindBoth }

// UsesDistance reports whether the odometer trigger participates in evaluation.
func (k ReminderKind) UsesDistance() bool { return k == KindDistance || k == KindBoth }

type ReminderStatus string

const (
	StatusActive    ReminderStatus = "active"
	StatusSnoozed   ReminderStatus = "snoozed"
	StatusDone      ReminderStatus = "done"
	StatusDismissed ReminderStatus = "dismissed"
)

// Terminal reports whether no further transition is allowed.
func (s ReminderStatus) Terminal() bool {
	return s == StatusDone || s == StatusDismissed
}

// Open reports whether the reminder still wants attention.
func (s ReminderStatus) Open() bool {
	return s == StatusActive || s == StatusSnoozed
}

// Threshold is the interval a due point was computed from.
type Threshold struct {
	MonthsOffset *int
	KmOffset     *int
}

// OilEnrichment is attached to oil-change reminders by an external
// collaborator. The engine never computes it.
type OilEnrichment struct {
	PurchaseCandidates []PurchaseCandidate `json:"purchaseCandidates,omitempty"`
	ReservationURL     string              `json:"reservationUrl,omitempty"`
	OilSpec            string              `json:"oilSpec,omitempty"`
	LastChangeDate     *time.Time          `json:"lastChangeDate,omitempty"`
}

type PurchaseCandidate struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	PriceJPY int    `json:"priceJpy,omitempty"`
}

// Reminder is a scheduled maintenance obligation for a vehicle.
type Reminder struct {
	ID            string       `gorm:"primaryKey;size:36"`
	UserID        uint         `gorm:"index"`
	CarID         string       `gorm:"index:idx_reminder_car_category;size:36"`
	Category      string       `gorm:"index:idx_reminder_car_category"`
	Kind          ReminderKind `gorm:"size:16"`
	Title         string
	DueDate       *time.Time
	DueOdometerKm *int
	BaseEntryRef  *string        `gorm:"index;size:36"`
	Threshold     Threshold      `gorm:"embedded;embeddedPrefix:threshold_"`
	Status        ReminderStatus `gorm:"size:16;index"`
	Notes         string
	Enrichment    *OilEnrichment `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Reminder) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
	return nil
}
