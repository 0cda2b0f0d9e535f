package reminder

import (
	"math"
	"time"

	"carkeeper/internal/model"
)

// Annual automobile tax falls due on May 31.
const (
	annualTaxMonth = time.May
	annualTaxDay   = 31

	// distanceOilIntervalKm is the extra odometer-based oil reminder offset.
	distanceOilIntervalKm = 5000

	avgDaysPerMonth = 365.25 / 12
)

// VehicleProfile is what provisioning needs to know about a new vehicle.
type VehicleProfile struct {
	ID                 string
	NextInspectionDate *time.Time
	AverageKmPerMonth  *int
	CurrentOdometerKm  *int
}

// ProfileOf extracts a provisioning profile from a stored vehicle.
func ProfileOf(v model.Vehicle) VehicleProfile {
	return VehicleProfile{
		ID:                 v.ID,
		NextInspectionDate: v.NextInspectionDate,
		AverageKmPerMonth:  v.AverageKmPerMonth,
		CurrentOdometerKm:  v.CurrentOdometerKm,
	}
}

type bundleItem struct {
	category string
	title    string
	months   int
}

var starterBundle = []bundleItem{
	{CategoryOilChange, "オイル交換", 6},
	{CategoryOilFilter, "オイルフィルター交換", 12},
	{CategoryBrakeFluid, "ブレーキフルード交換", 24},
	{CategoryCoolant, "クーラント交換", 24},
	{CategoryTireCheck, "タイヤ点検", 12},
}

// GenerateInitialReminders builds the starter set for a newly registered
// vehicle: one inspection reminder when the date is known, the annual tax
// reminder, the time-based maintenance bundle and, when mileage is known, an
// odometer-based oil reminder.
func GenerateInitialReminders(v VehicleProfile, now time.Time) []Suggestion {
	var out []Suggestion

	if v.NextInspectionDate != nil {
		due := *v.NextInspectionDate
		out = append(out, Suggestion{
			Category: CategoryInspection,
			Kind:     model.KindTime,
			Title:    "車検期限",
			DueDate:  &due,
			Priority: InspectionPriority(due, now),
			Notes:    "auto-generated: inspection",
		})
	}

	tax := NextAnnualTaxDate(now)
	out = append(out, Suggestion{
		Category: CategoryAnnualTax,
		Kind:     model.KindTime,
		Title:    "自動車税納付",
		DueDate:  &tax,
		Priority: PriorityLow,
		Notes:    "auto-generated: annual tax",
	})

	for _, item := range starterBundle {
		due := now.AddDate(0, item.months, 0)
		out = append(out, Suggestion{
			Category:  item.category,
			Kind:      model.KindTime,
			Title:     item.title,
			DueDate:   &due,
			Threshold: model.Threshold{MonthsOffset: intPtr(item.months)},
			Priority:  PriorityLow,
			Notes:     "auto-generated: initial " + item.category,
		})
	}

	if v.AverageKmPerMonth != nil && *v.AverageKmPerMonth > 0 {
		current := 0
		if v.CurrentOdometerKm != nil {
			current = *v.CurrentOdometerKm
		}
		target := current + distanceOilIntervalKm
		s := Suggestion{
			Category:      CategoryOilChange,
			Kind:          model.KindDistance,
			Title:         "オイル交換（走行距離）",
			DueOdometerKm: &target,
			Threshold:     model.Threshold{KmOffset: intPtr(distanceOilIntervalKm)},
			Priority:      PriorityLow,
			Notes:         "auto-generated: initial oil_change by distance",
		}
		if est, ok := EstimateDateForDistance(now, current, *v.AverageKmPerMonth, target); ok {
			s.DueDate = &est
		}
		out = append(out, s)
	}

	return out
}

// InspectionPriority buckets the inspection deadline with its own, narrower
// day thresholds: >30 Low, >14 Medium, >7 High, otherwise Urgent.
func InspectionPriority(due, now time.Time) Priority {
	days := int(math.Ceil(float64(due.Sub(now)) / float64(day)))
	switch {
	case days > 30:
		return PriorityLow
	case days > 14:
		return PriorityMedium
	case days > 7:
		return PriorityHigh
	default:
		return PriorityUrgent
	}
}

// NextAnnualTaxDate returns this year's tax date, or next year's once this
// year's has passed.
func NextAnnualTaxDate(now time.Time) time.Time {
	due := time.Date(now.Year(), annualTaxMonth, annualTaxDay, 0, 0, 0, 0, now.Location())
	if due.Before(startOfDay(now)) {
		due = due.AddDate(1, 0, 0)
	}
	return due
}

// EstimateDateForDistance projects when targetKm will be reached at the given
// monthly mileage. It never projects into the past.
func EstimateDateForDistance(now time.Time, currentKm, avgKmPerMonth, targetKm int) (time.Time, bool) {
	if avgKmPerMonth <= 0 || targetKm <= currentKm {
		return time.Time{}, false
	}
	months := float64(targetKm-currentKm) / float64(avgKmPerMonth)
	whole := math.Floor(months)
	est := now.AddDate(0, int(whole), 0)
	if frac := months - whole; frac > 0 {
		est = est.Add(time.Duration(frac * avgDaysPerMonth * float64(day)))
	}
	return est, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
