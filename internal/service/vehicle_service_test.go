package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
)

func TestRegisterProvisionsStarterReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inspection := f.clock.Now().AddDate(0, 0, -3)

	v, provisioned, err := f.vehicles.Register(ctx, f.principal, VehicleInput{
		Name:               " Prius ",
		CurrentOdometerKm:  ptr(42000),
		AverageKmPerMonth:  ptr(1000),
		NextInspectionDate: &inspection,
		OilSpec:            "0W-16",
	})
	require.NoError(t, err)
	assert.Equal(t, "Prius", v.Name)
	require.Len(t, provisioned, 8)

	byCategory := map[string][]Provisioned{}
	for _, p := range provisioned {
		byCategory[p.Reminder.Category] = append(byCategory[p.Reminder.Category], p)
		assert.Equal(t, model.StatusActive, p.Reminder.Status)
		assert.Equal(t, v.ID, p.Reminder.CarID)
	}
	require.Len(t, byCategory[reminder.CategoryInspection], 1)
	assert.Equal(t, reminder.PriorityUrgent, byCategory[reminder.CategoryInspection][0].Priority)
	require.Len(t, byCategory[reminder.CategoryAnnualTax], 1)
	assert.Len(t, byCategory[reminder.CategoryOilChange], 2)

	var distance *model.Reminder
	for i := range byCategory[reminder.CategoryOilChange] {
		if r := byCategory[reminder.CategoryOilChange][i].Reminder; r.Kind == model.KindDistance {
			distance = &r
		}
	}
	require.NotNil(t, distance)
	assert.Equal(t, 47000, *distance.DueOdometerKm)
	require.NotNil(t, distance.DueDate)

	assert.Len(t, f.list(t, v.ID), 8)
}

func TestRegisterMinimalVehicle(t *testing.T) {
	f := newFixture(t)
	v, provisioned, err := f.vehicles.Register(context.Background(), f.principal, VehicleInput{Name: "Jimny"})
	require.NoError(t, err)
	assert.Len(t, provisioned, 6, "annual tax and the bundle")
	assert.Nil(t, v.CurrentOdometerKm)

	_, _, err = f.vehicles.Register(context.Background(), f.principal, VehicleInput{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateOdometerIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.car(t, ptr(10000))

	v, err := f.vehicles.UpdateOdometer(ctx, f.principal, car.ID, 12000)
	require.NoError(t, err)
	assert.Equal(t, 12000, *v.CurrentOdometerKm)

	_, err = f.vehicles.UpdateOdometer(ctx, f.principal, car.ID, 11000)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.vehicles.UpdateOdometer(ctx, f.principal, "missing", 11000)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.vehicles.List(ctx, f.principal)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 12000, *list[0].CurrentOdometerKm)
}
