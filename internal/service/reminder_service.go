package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/zoobzio/clockz"

	"carkeeper/internal/auth"
	"carkeeper/internal/events"
	"carkeeper/internal/metrics"
	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
)

// ManualInput represents data required to create a user reminder.
type ManualInput struct {
	CarID         string
	Title         string
	Kind          model.ReminderKind
	DueDate       *time.Time
	DueOdometerKm *int
	Notes         string
}

// ReminderService applies user actions to reminders and lists them with
// their live due status.
type ReminderService struct {
	reminders ReminderStore
	vehicles  VehicleStore
	catalog   *reminder.Catalog
	effects   SideEffects
	clock     clockz.Clock
}

func NewReminderService(reminders ReminderStore, vehicles VehicleStore, catalog *reminder.Catalog, effects SideEffects, clock clockz.Clock) *ReminderService {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &ReminderService{reminders: reminders, vehicles: vehicles, catalog: catalog, effects: effects, clock: clock}
}

// MarkDone closes the reminder. No successor is created.
func (s *ReminderService) MarkDone(ctx context.Context, p auth.Principal, id string) (*model.Reminder, error) {
	return s.apply(ctx, p, id, model.StatusDone, func(r *model.Reminder, now time.Time) error {
		return reminder.MarkDone(r, now)
	})
}

// Dismiss closes the reminder without the work being done.
func (s *ReminderService) Dismiss(ctx context.Context, p auth.Principal, id string) (*model.Reminder, error) {
	return s.apply(ctx, p, id, model.StatusDismissed, func(r *model.Reminder, now time.Time) error {
		return reminder.Dismiss(r, now)
	})
}

// Snooze pushes the calendar trigger days into the future.
func (s *ReminderService) Snooze(ctx context.Context, p auth.Principal, id string, days int) (*model.Reminder, error) {
	return s.apply(ctx, p, id, model.StatusSnoozed, func(r *model.Reminder, now time.Time) error {
		return reminder.Snooze(r, now, days)
	})
}

func (s *ReminderService) apply(ctx context.Context, p auth.Principal, id string, to model.ReminderStatus, fn func(*model.Reminder, time.Time) error) (*model.Reminder, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	r, err := s.reminders.Get(ctx, p.UserID, id)
	if err != nil {
		return nil, notFound("reminder", err)
	}
	now := s.clock.Now()
	if err := fn(r, now); err != nil {
		metrics.ReminderTransitions.WithLabelValues(string(to), "rejected").Inc()
		return nil, err
	}
	if err := s.reminders.Save(ctx, r); err != nil {
		return nil, err
	}
	metrics.ReminderTransitions.WithLabelValues(string(to), "ok").Inc()
	log.Printf("[info] reminder %s -> %s user=%d", r.ID, r.Status, p.UserID)
	s.publish(events.ReminderEvent(events.ReminderUpdated, *r, "status "+string(to), now))
	return r, nil
}

// CreateManual stores a user-defined reminder. Titles that match the catalog
// get its category so later maintenance events supersede them.
func (s *ReminderService) CreateManual(ctx context.Context, p auth.Principal, in ManualInput) (*model.Reminder, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	if err := validateManual(in); err != nil {
		return nil, err
	}
	if _, err := s.vehicles.Get(ctx, p.UserID, in.CarID); err != nil {
		return nil, notFound("vehicle", err)
	}

	r := model.Reminder{
		UserID:        p.UserID,
		CarID:         in.CarID,
		Kind:          in.Kind,
		Title:         strings.TrimSpace(in.Title),
		DueDate:       in.DueDate,
		DueOdometerKm: in.DueOdometerKm,
		Status:        model.StatusActive,
		Notes:         in.Notes,
	}
	if rule, ok := s.catalog.Lookup(r.Title); ok {
		r.Category = rule.Key
	}
	if err := s.reminders.Create(ctx, &r); err != nil {
		return nil, err
	}
	metrics.RemindersGenerated.WithLabelValues("manual", r.Category).Inc()
	s.publish(events.ReminderEvent(events.ReminderCreated, r, "manual", s.clock.Now()))
	return &r, nil
}

func validateManual(in ManualInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if !in.Kind.Valid() {
		return invalid("unknown kind %q", in.Kind)
	}
	if in.Kind.UsesTime() && in.DueDate == nil {
		return invalid("%s reminder needs a due date", in.Kind)
	}
	if in.Kind.UsesDistance() {
		if in.DueOdometerKm == nil {
			return invalid("%s reminder needs a due odometer reading", in.Kind)
		}
		if *in.DueOdometerKm < 0 {
			return invalid("due odometer reading must not be negative")
		}
	}
	return nil
}

// Delete removes a reminder outright.
func (s *ReminderService) Delete(ctx context.Context, p auth.Principal, id string) error {
	if err := auth.Require(p); err != nil {
		return err
	}
	r, err := s.reminders.Get(ctx, p.UserID, id)
	if err != nil {
		return notFound("reminder", err)
	}
	if err := s.reminders.Delete(ctx, p.UserID, id); err != nil {
		return err
	}
	s.publish(events.ReminderEvent(events.ReminderDeleted, *r, "user", s.clock.Now()))
	return nil
}

func (s *ReminderService) Get(ctx context.Context, p auth.Principal, id string) (*model.Reminder, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	r, err := s.reminders.Get(ctx, p.UserID, id)
	if err != nil {
		return nil, notFound("reminder", err)
	}
	return r, nil
}

// ListForCar evaluates every reminder on the car against its live odometer,
// most pressing first. Closed reminders are included only when withClosed.
func (s *ReminderService) ListForCar(ctx context.Context, p auth.Principal, carID string, withClosed bool) ([]reminder.Status, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	v, err := s.vehicles.Get(ctx, p.UserID, carID)
	if err != nil {
		return nil, notFound("vehicle", err)
	}
	list, err := s.reminders.ListByCar(ctx, p.UserID, carID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	now := s.clock.Now()
	out := make([]reminder.Status, 0, len(list))
	for _, r := range list {
		if !withClosed && !r.Status.Open() {
			continue
		}
		out = append(out, reminder.Evaluate(r, now, v.CurrentOdometerKm))
	}
	sortStatuses(out)
	return out, nil
}

func (s *ReminderService) publish(evt events.Event) {
	if s.effects != nil {
		s.effects.Publish(evt)
	}
}

// sortStatuses orders by priority, then days left, then distance left.
func sortStatuses(list []reminder.Status) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		switch {
		case a.DaysLeft != nil && b.DaysLeft != nil && *a.DaysLeft != *b.DaysLeft:
			return *a.DaysLeft < *b.DaysLeft
		case a.DaysLeft != nil && b.DaysLeft == nil:
			return true
		case a.DaysLeft == nil && b.DaysLeft != nil:
			return false
		}
		if a.DistanceLeft != nil && b.DistanceLeft != nil {
			return *a.DistanceLeft < *b.DistanceLeft
		}
		return a.DistanceLeft != nil && b.DistanceLeft == nil
	})
}
