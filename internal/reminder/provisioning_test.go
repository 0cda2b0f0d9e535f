package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carkeeper/internal/model"
)

func byCategory(specs []Suggestion, category string) []Suggestion {
	var out []Suggestion
	for _, s := range specs {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

func TestInitialRemindersPastInspection(t *testing.T) {
	now := date(2024, 6, 1)
	specs := GenerateInitialReminders(VehicleProfile{ID: "c1", NextInspectionDate: ptr(date(2024, 1, 1))}, now)

	insp := byCategory(specs, CategoryInspection)
	require.Len(t, insp, 1)
	assert.Equal(t, PriorityUrgent, insp[0].Priority)
	assert.Equal(t, model.KindTime, insp[0].Kind)
}

func TestInitialRemindersBundle(t *testing.T) {
	now := date(2024, 3, 1)
	specs := GenerateInitialReminders(VehicleProfile{ID: "c1"}, now)

	assert.Empty(t, byCategory(specs, CategoryInspection))
	want := map[string]int{
		CategoryOilChange:  6,
		CategoryOilFilter:  12,
		CategoryBrakeFluid: 24,
		CategoryCoolant:    24,
		CategoryTireCheck:  12,
	}
	for category, months := range want {
		got := byCategory(specs, category)
		require.Len(t, got, 1, category)
		assert.Equal(t, model.KindTime, got[0].Kind)
		assert.Equal(t, now.AddDate(0, months, 0), *got[0].DueDate, category)
	}

	tax := byCategory(specs, CategoryAnnualTax)
	require.Len(t, tax, 1)
	assert.Equal(t, date(2024, 5, 31), *tax[0].DueDate)
}

func TestInitialRemindersDistanceOil(t *testing.T) {
	now := date(2024, 3, 1)
	specs := GenerateInitialReminders(VehicleProfile{
		ID:                "c1",
		AverageKmPerMonth: ptr(1000),
		CurrentOdometerKm: ptr(42000),
	}, now)

	oil := byCategory(specs, CategoryOilChange)
	require.Len(t, oil, 2)
	dist := oil[1]
	assert.Equal(t, model.KindDistance, dist.Kind)
	assert.Equal(t, 47000, *dist.DueOdometerKm)
	require.NotNil(t, dist.DueDate)
	assert.Equal(t, now.AddDate(0, 5, 0), *dist.DueDate)
}

func TestInitialRemindersAreNotEnriched(t *testing.T) {
	specs := GenerateInitialReminders(VehicleProfile{
		ID:                 "c1",
		AverageKmPerMonth:  ptr(1000),
		NextInspectionDate: ptr(date(2025, 1, 1)),
	}, date(2024, 3, 1))

	require.NotEmpty(t, specs)
	for _, s := range specs {
		assert.False(t, s.Special, s.Category)
	}
}

func TestInspectionPriorityBuckets(t *testing.T) {
	now := date(2024, 1, 1)
	cases := map[int]Priority{
		31: PriorityLow,
		30: PriorityMedium,
		15: PriorityMedium,
		14: PriorityHigh,
		8:  PriorityHigh,
		7:  PriorityUrgent,
		-3: PriorityUrgent,
	}
	for days, want := range cases {
		assert.Equal(t, want, InspectionPriority(now.AddDate(0, 0, days), now), "days=%d", days)
	}
}

func TestNextAnnualTaxDateRollsOver(t *testing.T) {
	assert.Equal(t, date(2024, 5, 31), NextAnnualTaxDate(date(2024, 5, 31).Add(15*time.Hour)))
	assert.Equal(t, date(2025, 5, 31), NextAnnualTaxDate(date(2024, 6, 1)))
}

func TestEstimateDateForDistance(t *testing.T) {
	now := date(2024, 1, 15)

	est, ok := EstimateDateForDistance(now, 40000, 500, 45000)
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 10, 0), est)

	for _, target := range []int{0, 40000, 90000} {
		_, ok := EstimateDateForDistance(now, 40000, 0, target)
		assert.False(t, ok)
	}
	_, ok = EstimateDateForDistance(now, 40000, 500, 39000)
	assert.False(t, ok)

	est, ok = EstimateDateForDistance(now, 0, 1000, 1500)
	require.True(t, ok)
	assert.True(t, est.After(now.AddDate(0, 1, 0)))
	assert.True(t, est.Before(now.AddDate(0, 2, 0)))
}
