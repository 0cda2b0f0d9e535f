package service

import (
	"context"

	"carkeeper/internal/events"
	"carkeeper/internal/model"
)

// ReminderStore is the persistence collaborator for reminders.
type ReminderStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, r *model.Reminder) error
	Save(ctx context.Context, r *model.Reminder) error
	Get(ctx context.Context, userID uint, id string) (*model.Reminder, error)
	ListByCar(ctx context.Context, userID uint, carID string) ([]model.Reminder, error)
	ListOpenByUser(ctx context.Context, userID uint) ([]model.Reminder, error)
	FindForDedup(ctx context.Context, userID uint, carID, category string, aliases []string) ([]model.Reminder, error)
	Delete(ctx context.Context, userID uint, id string) error
	DeleteByBaseEntry(ctx context.Context, userID uint, carID, eventID string) ([]model.Reminder, error)
	UpdateEnrichment(ctx context.Context, id string, e *model.OilEnrichment) error
}

// VehicleStore is the vehicle collaborator.
type VehicleStore interface {
	Create(ctx context.Context, v *model.Vehicle) error
	Get(ctx context.Context, userID uint, id string) (*model.Vehicle, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Vehicle, error)
	Save(ctx context.Context, v *model.Vehicle) error
}

// MaintenanceStore persists maintenance events.
type MaintenanceStore interface {
	Create(ctx context.Context, e *model.MaintenanceEvent) error
	Save(ctx context.Context, e *model.MaintenanceEvent) error
	Get(ctx context.Context, userID uint, id string) (*model.MaintenanceEvent, error)
	ListByCar(ctx context.Context, userID uint, carID string) ([]model.MaintenanceEvent, error)
	Delete(ctx context.Context, userID uint, id string) error
}

// Enricher resolves purchase and booking metadata for oil changes.
type Enricher interface {
	ResolvePurchaseAndBooking(ctx context.Context, carID, oilSpec string) (*model.OilEnrichment, error)
}

// SideEffects runs best-effort work off the request path.
type SideEffects interface {
	Go(kind string, fn func(ctx context.Context) error) bool
	Publish(evt events.Event)
}
