package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaintenanceEvent records work performed on a vehicle. Title doubles as the
// category key handed to the suggestion catalog.
type MaintenanceEvent struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      uint   `gorm:"index"`
	CarID       string `gorm:"index;size:36"`
	Title       string
	PerformedAt time.Time
	OdometerKm  *int
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *MaintenanceEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
