package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zoobzio/clockz"

	"carkeeper/internal/auth"
	"carkeeper/internal/model"
)

// MaintenanceInput represents data required to log a maintenance event.
type MaintenanceInput struct {
	CarID       string
	Title       string
	PerformedAt time.Time
	OdometerKm  *int
	Notes       string
}

// MaintenanceService records maintenance and keeps reminders in step with it.
type MaintenanceService struct {
	events      MaintenanceStore
	vehicles    *VehicleService
	coordinator *Coordinator
	clock       clockz.Clock
}

func NewMaintenanceService(events MaintenanceStore, vehicles *VehicleService, coordinator *Coordinator, clock clockz.Clock) *MaintenanceService {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &MaintenanceService{events: events, vehicles: vehicles, coordinator: coordinator, clock: clock}
}

// Log stores the event, raises the vehicle odometer and generates the next
// reminder when the title maps onto the catalog. The reminder is nil for
// free-text titles.
func (s *MaintenanceService) Log(ctx context.Context, p auth.Principal, in MaintenanceInput) (*model.MaintenanceEvent, *model.Reminder, error) {
	if err := auth.Require(p); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, nil, invalid("title is required")
	}
	if in.OdometerKm != nil && *in.OdometerKm < 0 {
		return nil, nil, invalid("odometer must not be negative")
	}
	v, err := s.vehicles.Get(ctx, p, in.CarID)
	if err != nil {
		return nil, nil, err
	}
	if in.PerformedAt.IsZero() {
		in.PerformedAt = s.clock.Now()
	}

	e := model.MaintenanceEvent{
		UserID:      p.UserID,
		CarID:       v.ID,
		Title:       strings.TrimSpace(in.Title),
		PerformedAt: in.PerformedAt,
		OdometerKm:  in.OdometerKm,
		Notes:       in.Notes,
	}
	if err := s.events.Create(ctx, &e); err != nil {
		return nil, nil, err
	}
	if err := s.vehicles.raiseOdometer(ctx, v, in.OdometerKm); err != nil {
		log.Printf("[warn] %v car=%s", err, v.ID)
	}

	r, err := s.generate(ctx, p, e)
	if err != nil {
		return &e, nil, err
	}
	return &e, r, nil
}

// Update rewrites an event in one transaction. Reminders generated from its
// old version are removed, the odometer is raised and the next reminder is
// regenerated from the new values.
func (s *MaintenanceService) Update(ctx context.Context, p auth.Principal, id string, in MaintenanceInput) (*model.MaintenanceEvent, *model.Reminder, error) {
	if err := auth.Require(p); err != nil {
		return nil, nil, err
	}
	e, err := s.events.Get(ctx, p.UserID, id)
	if err != nil {
		return nil, nil, notFound("maintenance event", err)
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		e.Title = t
	}
	if !in.PerformedAt.IsZero() {
		e.PerformedAt = in.PerformedAt
	}
	if in.OdometerKm != nil {
		if *in.OdometerKm < 0 {
			return nil, nil, invalid("odometer must not be negative")
		}
		e.OdometerKm = in.OdometerKm
	}
	if in.Notes != "" {
		e.Notes = in.Notes
	}

	var r *model.Reminder
	err = s.coordinator.reminders.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.coordinator.DeleteRemindersForMaintenanceEvent(ctx, p, e.CarID, e.ID); err != nil {
			return err
		}
		if err := s.events.Save(ctx, e); err != nil {
			return fmt.Errorf("save maintenance %s: %w", e.ID, err)
		}
		if v, err := s.vehicles.Get(ctx, p, e.CarID); err == nil {
			if err := s.vehicles.raiseOdometer(ctx, v, e.OdometerKm); err != nil {
				log.Printf("[warn] %v car=%s", err, v.ID)
			}
		}
		var err error
		r, err = s.generate(ctx, p, *e)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return e, r, nil
}

// Delete removes the event and every reminder generated from it. Either both
// go or neither does.
func (s *MaintenanceService) Delete(ctx context.Context, p auth.Principal, id string) error {
	if err := auth.Require(p); err != nil {
		return err
	}
	e, err := s.events.Get(ctx, p.UserID, id)
	if err != nil {
		return notFound("maintenance event", err)
	}
	var n int
	err = s.coordinator.reminders.InTx(ctx, func(ctx context.Context) error {
		var err error
		if n, err = s.coordinator.DeleteRemindersForMaintenanceEvent(ctx, p, e.CarID, e.ID); err != nil {
			return err
		}
		if err := s.events.Delete(ctx, p.UserID, e.ID); err != nil {
			return fmt.Errorf("delete maintenance %s: %w", e.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[info] maintenance %s deleted, %d reminders removed", e.ID, n)
	return nil
}

func (s *MaintenanceService) ListForCar(ctx context.Context, p auth.Principal, carID string) ([]model.MaintenanceEvent, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	return s.events.ListByCar(ctx, p.UserID, carID)
}

func (s *MaintenanceService) generate(ctx context.Context, p auth.Principal, e model.MaintenanceEvent) (*model.Reminder, error) {
	r, err := s.coordinator.GenerateFromMaintenanceEvent(ctx, p, GenerateInput{
		CarID:         e.CarID,
		Category:      e.Title,
		PerformedAt:   e.PerformedAt,
		OdometerKm:    e.OdometerKm,
		SourceEventID: e.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("maintenance %s: %w", e.ID, err)
	}
	return r, nil
}
