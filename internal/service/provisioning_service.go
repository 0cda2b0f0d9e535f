package service

import (
	"context"
	"fmt"
	"log"

	"github.com/zoobzio/clockz"

	"carkeeper/internal/auth"
	"carkeeper/internal/events"
	"carkeeper/internal/metrics"
	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
)

// Provisioned pairs a stored starter reminder with the priority it was
// bucketed into at onboarding.
type Provisioned struct {
	Reminder model.Reminder
	Priority reminder.Priority
}

// ProvisioningService seeds the starter reminder set of a new vehicle.
type ProvisioningService struct {
	reminders ReminderStore
	effects   SideEffects
	clock     clockz.Clock
}

func NewProvisioningService(reminders ReminderStore, effects SideEffects, clock clockz.Clock) *ProvisioningService {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &ProvisioningService{reminders: reminders, effects: effects, clock: clock}
}

// Provision stores the starter bundle for v in one transaction.
func (s *ProvisioningService) Provision(ctx context.Context, p auth.Principal, v model.Vehicle) ([]Provisioned, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	specs := reminder.GenerateInitialReminders(reminder.ProfileOf(v), now)

	out := make([]Provisioned, 0, len(specs))
	err := s.reminders.InTx(ctx, func(ctx context.Context) error {
		out = out[:0]
		for _, spec := range specs {
			r := spec.Reminder(p.UserID, v.ID)
			if err := s.reminders.Create(ctx, &r); err != nil {
				return err
			}
			out = append(out, Provisioned{Reminder: r, Priority: spec.Priority})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("provision vehicle %s: %w", v.ID, err)
	}

	for _, item := range out {
		metrics.RemindersGenerated.WithLabelValues("provisioning", item.Reminder.Category).Inc()
		if s.effects != nil {
			s.effects.Publish(events.ReminderEvent(events.ReminderCreated, item.Reminder, "provisioning", now))
		}
	}
	log.Printf("[info] provisioned %d reminders car=%s user=%d", len(out), v.ID, p.UserID)
	return out, nil
}
