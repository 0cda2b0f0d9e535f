package model

import "time"

// User stores Telegram user metadata. Every engine call is scoped to one.
type User struct {
	ID           uint  `gorm:"primaryKey"`
	TelegramID   int64 `gorm:"uniqueIndex"`
	FirstName    string
	LastName     string
	Username     string
	LastDigestAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Vehicles     []Vehicle `gorm:"foreignKey:UserID"`
}
