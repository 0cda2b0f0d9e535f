package reminder

import (
	"errors"
	"fmt"
	"time"

	"carkeeper/internal/model"
)

var (
	// ErrTerminal is returned for any transition out of Done or Dismissed.
	ErrTerminal = errors.New("reminder is closed")
	// ErrInvalidSnooze is returned for a non-positive snooze length.
	ErrInvalidSnooze = errors.New("snooze days must be positive")
)

// MarkDone closes the reminder. No successor is produced here; the next
// reminder comes from the next matching maintenance event.
func MarkDone(r *model.Reminder, now time.Time) error {
	return transition(r, model.StatusDone, now)
}

// Dismiss closes the reminder without the work being done.
func Dismiss(r *model.Reminder, now time.Time) error {
	return transition(r, model.StatusDismissed, now)
}

// Snooze moves the calendar trigger to now+days. The odometer trigger is left
// as is, so a snoozed Distance reminder evaluates exactly as before.
func Snooze(r *model.Reminder, now time.Time, days int) error {
	if days <= 0 {
		return ErrInvalidSnooze
	}
	if err := transition(r, model.StatusSnoozed, now); err != nil {
		return err
	}
	due := now.AddDate(0, 0, days)
	r.DueDate = &due
	return nil
}

func transition(r *model.Reminder, to model.ReminderStatus, now time.Time) error {
	if r == nil {
		return fmt.Errorf("nil reminder")
	}
	if r.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrTerminal, r.Status, to)
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}
