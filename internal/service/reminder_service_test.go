package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
)

func TestMarkDoneIsTerminalAndChainsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.car(t, nil)
	due := f.clock.Now().AddDate(0, 0, 10)
	r := f.seed(t, model.Reminder{CarID: car.ID, Title: "ワイパー", DueDate: &due})

	done, err := f.reminderSvc.MarkDone(ctx, f.principal, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, done.Status)
	assert.Len(t, f.list(t, car.ID), 1)

	_, err = f.reminderSvc.Snooze(ctx, f.principal, r.ID, 3)
	assert.ErrorIs(t, err, reminder.ErrTerminal)
	_, err = f.reminderSvc.Dismiss(ctx, f.principal, r.ID)
	assert.ErrorIs(t, err, reminder.ErrTerminal)

	stored, err := f.reminderSvc.Get(ctx, f.principal, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, stored.Status)
}

func TestSnoozeMovesDueDateFromNow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.car(t, nil)
	now := f.clock.Now()
	past := now.AddDate(0, -1, 0)
	r := f.seed(t, model.Reminder{CarID: car.ID, Kind: model.KindBoth, Title: "オイル交換", DueDate: &past, DueOdometerKm: ptr(30000)})

	snoozed, err := f.reminderSvc.Snooze(ctx, f.principal, r.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSnoozed, snoozed.Status)
	assert.True(t, now.AddDate(0, 0, 7).Equal(*snoozed.DueDate))
	assert.Equal(t, 30000, *snoozed.DueOdometerKm)

	_, err = f.reminderSvc.Snooze(ctx, f.principal, r.ID, 0)
	assert.ErrorIs(t, err, reminder.ErrInvalidSnooze)

	again, err := f.reminderSvc.Snooze(ctx, f.principal, r.ID, 3)
	require.NoError(t, err)
	assert.True(t, now.AddDate(0, 0, 3).Equal(*again.DueDate))
}

func TestDismissAndMissingReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.car(t, nil)
	r := f.seed(t, model.Reminder{CarID: car.ID, Kind: model.KindDistance, Title: "タイヤローテーション", DueOdometerKm: ptr(12000)})

	dismissed, err := f.reminderSvc.Dismiss(ctx, f.principal, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDismissed, dismissed.Status)

	_, err = f.reminderSvc.MarkDone(ctx, f.principal, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateManualValidatesAndCategorizes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.car(t, nil)
	due := f.clock.Now().AddDate(0, 2, 0)

	_, err := f.reminderSvc.CreateManual(ctx, f.principal, ManualInput{CarID: car.ID, Title: "x", Kind: model.KindTime})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.reminderSvc.CreateManual(ctx, f.principal, ManualInput{CarID: car.ID, Title: "x", Kind: model.KindDistance})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.reminderSvc.CreateManual(ctx, f.principal, ManualInput{CarID: car.ID, Title: " ", Kind: model.KindTime, DueDate: &due})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.reminderSvc.CreateManual(ctx, f.principal, ManualInput{CarID: "other", Title: "x", Kind: model.KindTime, DueDate: &due})
	assert.ErrorIs(t, err, ErrNotFound)

	r, err := f.reminderSvc.CreateManual(ctx, f.principal, ManualInput{CarID: car.ID, Title: "バッテリー交換", Kind: model.KindTime, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, reminder.CategoryBattery, r.Category)
	assert.Equal(t, model.StatusActive, r.Status)

	wash, err := f.reminderSvc.CreateManual(ctx, f.principal, ManualInput{CarID: car.ID, Title: "洗車", Kind: model.KindTime, DueDate: &due})
	require.NoError(t, err)
	assert.Empty(t, wash.Category)

	_, err = f.coordinator.GenerateFromMaintenanceEvent(ctx, f.principal, GenerateInput{
		CarID: car.ID, Category: "battery", PerformedAt: f.clock.Now(),
	})
	require.NoError(t, err)
	_, err = f.reminderSvc.Get(ctx, f.principal, r.ID)
	assert.ErrorIs(t, err, ErrNotFound, "manual reminder of the same category is superseded")
}

func TestListForCarOrdersByUrgency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.car(t, ptr(40000))
	now := f.clock.Now()
	soon := now.AddDate(0, 0, 3)
	later := now.AddDate(0, 6, 0)

	f.seed(t, model.Reminder{CarID: car.ID, Title: "later", DueDate: &later})
	f.seed(t, model.Reminder{CarID: car.ID, Title: "soon", DueDate: &soon})
	f.seed(t, model.Reminder{CarID: car.ID, Kind: model.KindDistance, Title: "km", DueOdometerKm: ptr(39000)})
	closed := f.seed(t, model.Reminder{CarID: car.ID, Title: "closed", DueDate: &soon})
	_, err := f.reminderSvc.MarkDone(ctx, f.principal, closed.ID)
	require.NoError(t, err)

	list, err := f.reminderSvc.ListForCar(ctx, f.principal, car.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "km", list[0].Reminder.Title)
	assert.True(t, list[0].Due)
	assert.Equal(t, "soon", list[1].Reminder.Title)
	assert.Equal(t, reminder.PriorityHigh, list[1].Priority)
	assert.Equal(t, "later", list[2].Reminder.Title)
	assert.Equal(t, reminder.PriorityLow, list[2].Priority)

	all, err := f.reminderSvc.ListForCar(ctx, f.principal, car.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDeleteReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	car := f.car(t, nil)
	due := f.clock.Now()
	r := f.seed(t, model.Reminder{CarID: car.ID, Title: "x", DueDate: &due})

	require.NoError(t, f.reminderSvc.Delete(ctx, f.principal, r.ID))
	assert.Empty(t, f.list(t, car.ID))
	assert.ErrorIs(t, f.reminderSvc.Delete(ctx, f.principal, r.ID), ErrNotFound)
}
