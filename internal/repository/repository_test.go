package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carkeeper/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func ptr[T any](v T) *T { return &v }

func TestReminderRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewReminderRepository(newTestDB(t))

	due := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	rem := &model.Reminder{
		UserID:        1,
		CarID:         "c1",
		Category:      "oil_change",
		Kind:          model.KindBoth,
		Title:         "次回オイル交換",
		DueDate:       &due,
		DueOdometerKm: ptr(55000),
		BaseEntryRef:  ptr("e1"),
		Threshold:     model.Threshold{MonthsOffset: ptr(6), KmOffset: ptr(5000)},
	}
	require.NoError(t, repo.Create(ctx, rem))
	require.NotEmpty(t, rem.ID)
	assert.Equal(t, model.StatusActive, rem.Status)

	got, err := repo.Get(ctx, 1, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, 55000, *got.DueOdometerKm)
	assert.Equal(t, 6, *got.Threshold.MonthsOffset)
	assert.True(t, due.Equal(*got.DueDate))
	assert.Nil(t, got.Enrichment)

	_, err = repo.Get(ctx, 2, rem.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "other users cannot read it")

	require.NoError(t, repo.UpdateEnrichment(ctx, rem.ID, &model.OilEnrichment{OilSpec: "0W-20", ReservationURL: "https://example.test/book"}))
	got, err = repo.Get(ctx, 1, rem.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Enrichment)
	assert.Equal(t, "0W-20", got.Enrichment.OilSpec)

	assert.ErrorIs(t, repo.UpdateEnrichment(ctx, "missing", &model.OilEnrichment{}), gorm.ErrRecordNotFound)
}

func TestFindForDedup(t *testing.T) {
	ctx := context.Background()
	repo := NewReminderRepository(newTestDB(t))

	seed := []*model.Reminder{
		{UserID: 1, CarID: "c1", Category: "oil_change", Kind: model.KindTime, Title: "whatever"},
		{UserID: 1, CarID: "c1", Kind: model.KindTime, Title: "エンジンオイル"},
		{UserID: 1, CarID: "c1", Kind: model.KindTime, Title: "洗車"},
		{UserID: 1, CarID: "c1", Category: "brake_fluid", Kind: model.KindTime, Title: "オイル交換"},
		{UserID: 1, CarID: "c2", Category: "oil_change", Kind: model.KindTime, Title: "x"},
	}
	for _, r := range seed {
		require.NoError(t, repo.Create(ctx, r))
	}

	found, err := repo.FindForDedup(ctx, 1, "c1", "oil_change", []string{"オイル交換", "エンジンオイル"})
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, r := range found {
		ids[r.ID] = true
	}
	assert.Len(t, found, 2)
	assert.True(t, ids[seed[0].ID])
	assert.True(t, ids[seed[1].ID])
}

func TestDeleteByBaseEntry(t *testing.T) {
	ctx := context.Background()
	repo := NewReminderRepository(newTestDB(t))

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Create(ctx, &model.Reminder{UserID: 1, CarID: "c1", Kind: model.KindTime, BaseEntryRef: ptr("e1")}))
	}
	keep := &model.Reminder{UserID: 1, CarID: "c1", Kind: model.KindTime, BaseEntryRef: ptr("e2")}
	require.NoError(t, repo.Create(ctx, keep))

	removed, err := repo.DeleteByBaseEntry(ctx, 1, "c1", "e1")
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	left, err := repo.ListByCar(ctx, 1, "c1")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, keep.ID, left[0].ID)

	removed, err = repo.DeleteByBaseEntry(ctx, 1, "c1", "e1")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewReminderRepository(newTestDB(t))

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, &model.Reminder{UserID: 1, CarID: "c1", Kind: model.KindTime}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	left, err := repo.ListByCar(ctx, 1, "c1")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestListOpenByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewReminderRepository(newTestDB(t))

	for _, st := range []model.ReminderStatus{model.StatusActive, model.StatusSnoozed, model.StatusDone, model.StatusDismissed} {
		require.NoError(t, repo.Create(ctx, &model.Reminder{UserID: 1, CarID: "c1", Kind: model.KindTime, Status: st}))
	}
	open, err := repo.ListOpenByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestVehicleAndMaintenance(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	vehicles := NewVehicleRepository(db)
	events := NewMaintenanceRepository(db)
	users := NewUserRepository(db)

	user, err := users.UpsertFromTelegram(ctx, 100, "Taro", "", "taro")
	require.NoError(t, err)

	v := &model.Vehicle{UserID: user.ID, Name: "Fit", CurrentOdometerKm: ptr(42000)}
	require.NoError(t, vehicles.Create(ctx, v))
	require.NotEmpty(t, v.ID)

	list, err := vehicles.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	e := &model.MaintenanceEvent{UserID: user.ID, CarID: v.ID, Title: "オイル交換", PerformedAt: time.Now(), OdometerKm: ptr(42000)}
	require.NoError(t, events.Create(ctx, e))
	got, err := events.Get(ctx, user.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "オイル交換", got.Title)

	require.NoError(t, events.Delete(ctx, user.ID, e.ID))
	_, err = events.Get(ctx, user.ID, e.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	now := time.Now()
	require.NoError(t, users.MarkDigestSent(ctx, user.ID, now))
	reloaded, err := users.UpsertFromTelegram(ctx, 100, "Taro", "Yamada", "taro")
	require.NoError(t, err)
	assert.Equal(t, user.ID, reloaded.ID)
	assert.Equal(t, "Yamada", reloaded.LastName)
	require.NotNil(t, reloaded.LastDigestAt)

	_, err = users.UpsertFromTelegram(ctx, 200, "Jiro", "", "jiro")
	require.NoError(t, err)
	recipients, err := users.ListDigestRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 1, "users without vehicles get no digest")
	assert.Equal(t, int64(100), recipients[0].TelegramID)
}
