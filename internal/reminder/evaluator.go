// Package reminder holds the maintenance reminder engine: due-status
// evaluation, the suggestion catalog, lifecycle transitions and the initial
// reminder bundle for a new vehicle. Everything here is pure and safe for
// concurrent use; persistence lives in the service layer.
package reminder

import (
	"math"
	"time"

	"carkeeper/internal/model"
)

const day = 24 * time.Hour

// Priority ranks how pressing a reminder is.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "urgent"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// IsDue reports whether either configured trigger has fired. A missing
// operand makes that trigger not fire.
func IsDue(r model.Reminder, now time.Time, odometerKm *int) bool {
	switch r.Kind {
	case model.KindTime:
		return timeDue(r, now)
	case model.KindDistance:
		return distanceDue(r, odometerKm)
	case model.KindBoth:
		return timeDue(r, now) || distanceDue(r, odometerKm)
	default:
		return false
	}
}

func timeDue(r model.Reminder, now time.Time) bool {
	return r.DueDate != nil && !r.DueDate.After(now)
}

func distanceDue(r model.Reminder, odometerKm *int) bool {
	return r.DueOdometerKm != nil && odometerKm != nil && *odometerKm >= *r.DueOdometerKm
}

// DaysUntilDue returns the whole days left before the due date, rounded up.
// Negative values mean overdue. Nil when the calendar trigger does not apply.
func DaysUntilDue(r model.Reminder, now time.Time) *int {
	if !r.Kind.UsesTime() || r.DueDate == nil {
		return nil
	}
	days := int(math.Ceil(float64(r.DueDate.Sub(now)) / float64(day)))
	return &days
}

// DistanceUntilDue returns the kilometres left before the due reading,
// floored at zero. Nil when the odometer trigger does not apply or no reading
// is known.
func DistanceUntilDue(r model.Reminder, odometerKm *int) *int {
	if !r.Kind.UsesDistance() || r.DueOdometerKm == nil || odometerKm == nil {
		return nil
	}
	left := *r.DueOdometerKm - *odometerKm
	if left < 0 {
		left = 0
	}
	return &left
}

// EvaluatePriority buckets a reminder from the most severe level down.
func EvaluatePriority(r model.Reminder, now time.Time, odometerKm *int) Priority {
	days := DaysUntilDue(r, now)
	km := DistanceUntilDue(r, odometerKm)

	switch {
	case days != nil && *days < 0, km != nil && *km <= 0:
		return PriorityUrgent
	case days != nil && *days <= 7, km != nil && *km <= 1000:
		return PriorityHigh
	case days != nil && *days <= 30, km != nil && *km <= 5000:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Status is a read-only snapshot of one reminder's evaluation.
type Status struct {
	Reminder     model.Reminder
	Due          bool
	DaysLeft     *int
	DistanceLeft *int
	Priority     Priority
}

// Evaluate computes every due metric for r in one pass.
func Evaluate(r model.Reminder, now time.Time, odometerKm *int) Status {
	return Status{
		Reminder:     r,
		Due:          IsDue(r, now, odometerKm),
		DaysLeft:     DaysUntilDue(r, now),
		DistanceLeft: DistanceUntilDue(r, odometerKm),
		Priority:     EvaluatePriority(r, now, odometerKm),
	}
}
