package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zoobzio/clockz"

	"carkeeper/internal/auth"
	"carkeeper/internal/events"
	"carkeeper/internal/metrics"
	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
)

// GenerateInput describes a completed maintenance that may produce the next
// reminder.
type GenerateInput struct {
	CarID         string
	Category      string
	PerformedAt   time.Time
	OdometerKm    *int
	SourceEventID string
}

// Coordinator turns maintenance events into reminders: suggest, drop stale
// reminders of the same category, create the new one, then enrich it.
type Coordinator struct {
	catalog   *reminder.Catalog
	reminders ReminderStore
	vehicles  VehicleStore
	enricher  Enricher
	effects   SideEffects
	clock     clockz.Clock
	locks     keyedMutex
}

// NewCoordinator wires the coordinator. enricher may be nil.
func NewCoordinator(catalog *reminder.Catalog, reminders ReminderStore, vehicles VehicleStore, enricher Enricher, effects SideEffects, clock clockz.Clock) *Coordinator {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Coordinator{
		catalog:   catalog,
		reminders: reminders,
		vehicles:  vehicles,
		enricher:  enricher,
		effects:   effects,
		clock:     clock,
	}
}

// GenerateFromMaintenanceEvent creates the next reminder for a maintenance
// category. Unknown categories return (nil, nil).
func (c *Coordinator) GenerateFromMaintenanceEvent(ctx context.Context, p auth.Principal, in GenerateInput) (*model.Reminder, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}

	s, ok := c.catalog.SuggestNext(in.Category, in.PerformedAt, in.OdometerKm)
	if !ok {
		log.Printf("[info] no suggestion for %q car=%s", in.Category, in.CarID)
		return nil, nil
	}

	if _, err := c.vehicles.Get(ctx, p.UserID, in.CarID); err != nil {
		return nil, notFound("vehicle", err)
	}

	unlock := c.locks.Lock(in.CarID + "|" + s.Category)
	defer unlock()

	rem := s.Reminder(p.UserID, in.CarID)
	if in.SourceEventID != "" {
		ref := in.SourceEventID
		rem.BaseEntryRef = &ref
	}

	var removed []model.Reminder
	err := c.reminders.InTx(ctx, func(ctx context.Context) error {
		removed = c.dedup(ctx, p, in.CarID, s.Category)
		return c.reminders.Create(ctx, &rem)
	})
	if err != nil {
		return nil, fmt.Errorf("generate reminder: %w", err)
	}

	now := c.clock.Now()
	metrics.RemindersGenerated.WithLabelValues("maintenance", s.Category).Inc()
	log.Printf("[info] reminder generated id=%s car=%s category=%s replaced=%d", rem.ID, rem.CarID, rem.Category, len(removed))
	for _, old := range removed {
		c.publish(events.ReminderEvent(events.ReminderDeleted, old, "superseded by "+rem.ID, now))
	}
	c.publish(events.ReminderEvent(events.ReminderCreated, rem, "maintenance "+in.SourceEventID, now))

	if s.Special {
		c.enqueueEnrichment(p, rem, in.PerformedAt)
	}
	return &rem, nil
}

// dedup removes reminders of category on the car. Failures are logged and
// skipped so they never block the replacement.
func (c *Coordinator) dedup(ctx context.Context, p auth.Principal, carID, category string) []model.Reminder {
	stale, err := c.reminders.FindForDedup(ctx, p.UserID, carID, category, c.catalog.NormalizedAliases(category))
	if err != nil {
		metrics.RemindersDeduped.WithLabelValues(category, "failed").Inc()
		log.Printf("[warn] dedup lookup car=%s category=%s: %v", carID, category, err)
		return nil
	}
	var removed []model.Reminder
	for _, old := range stale {
		if err := c.reminders.Delete(ctx, p.UserID, old.ID); err != nil {
			metrics.RemindersDeduped.WithLabelValues(category, "failed").Inc()
			log.Printf("[warn] dedup delete reminder=%s: %v", old.ID, err)
			continue
		}
		metrics.RemindersDeduped.WithLabelValues(category, "ok").Inc()
		removed = append(removed, old)
	}
	return removed
}

func (c *Coordinator) enqueueEnrichment(p auth.Principal, rem model.Reminder, performedAt time.Time) {
	if c.enricher == nil || c.effects == nil {
		return
	}
	c.effects.Go("enrichment", func(ctx context.Context) error {
		oilSpec := ""
		if v, err := c.vehicles.Get(ctx, p.UserID, rem.CarID); err == nil {
			oilSpec = v.OilSpec
		}
		e, err := c.enricher.ResolvePurchaseAndBooking(ctx, rem.CarID, oilSpec)
		if err != nil {
			return fmt.Errorf("reminder %s: %w", rem.ID, err)
		}
		if e == nil {
			return nil
		}
		last := performedAt
		e.LastChangeDate = &last
		if e.OilSpec == "" {
			e.OilSpec = oilSpec
		}
		return c.reminders.UpdateEnrichment(ctx, rem.ID, e)
	})
}

// DeleteRemindersForMaintenanceEvent removes every reminder generated from
// eventID so none outlives the history it came from.
func (c *Coordinator) DeleteRemindersForMaintenanceEvent(ctx context.Context, p auth.Principal, carID, eventID string) (int, error) {
	if err := auth.Require(p); err != nil {
		return 0, err
	}
	removed, err := c.reminders.DeleteByBaseEntry(ctx, p.UserID, carID, eventID)
	if err != nil {
		return 0, err
	}
	now := c.clock.Now()
	for _, r := range removed {
		c.publish(events.ReminderEvent(events.ReminderDeleted, r, "maintenance "+eventID+" removed", now))
	}
	return len(removed), nil
}

func (c *Coordinator) publish(evt events.Event) {
	if c.effects != nil {
		c.effects.Publish(evt)
	}
}
