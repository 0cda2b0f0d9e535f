package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle is a registered car. The reminder engine only reads it.
type Vehicle struct {
	ID                 string `gorm:"primaryKey;size:36"`
	UserID             uint   `gorm:"index"`
	Name               string
	CurrentOdometerKm  *int
	AverageKmPerMonth  *int
	NextInspectionDate *time.Time
	OilSpec            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (v *Vehicle) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
