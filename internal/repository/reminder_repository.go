package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"carkeeper/internal/model"
	"carkeeper/internal/reminder"
)

// ReminderRepository handles persistence for reminders. Every read and write
// except enrichment updates is scoped to the owning user.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// InTx runs fn in a transaction shared by every repository call using its ctx.
func (r *ReminderRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.db, fn)
}

func (r *ReminderRepository) Create(ctx context.Context, rem *model.Reminder) error {
	if err := conn(ctx, r.db).Create(rem).Error; err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) Save(ctx context.Context, rem *model.Reminder) error {
	if err := conn(ctx, r.db).Save(rem).Error; err != nil {
		return fmt.Errorf("save reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) Get(ctx context.Context, userID uint, id string) (*model.Reminder, error) {
	var rem model.Reminder
	if err := conn(ctx, r.db).Where("user_id = ? AND id = ?", userID, id).First(&rem).Error; err != nil {
		return nil, err
	}
	return &rem, nil
}

func (r *ReminderRepository) ListByCar(ctx context.Context, userID uint, carID string) ([]model.Reminder, error) {
	var out []model.Reminder
	if err := conn(ctx, r.db).Where("user_id = ? AND car_id = ?", userID, carID).
		Order("due_date IS NULL, due_date ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListOpenByUser returns active and snoozed reminders across all cars.
func (r *ReminderRepository) ListOpenByUser(ctx context.Context, userID uint) ([]model.Reminder, error) {
	var out []model.Reminder
	if err := conn(ctx, r.db).Where("user_id = ? AND status IN ?", userID,
		[]model.ReminderStatus{model.StatusActive, model.StatusSnoozed}).
		Order("car_id ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindForDedup returns the car's reminders in category, plus uncategorized
// reminders whose normalized title equals one of aliases. Aliases are
// expected in reminder.Normalize form.
func (r *ReminderRepository) FindForDedup(ctx context.Context, userID uint, carID, category string, aliases []string) ([]model.Reminder, error) {
	var candidates []model.Reminder
	if err := conn(ctx, r.db).Where("user_id = ? AND car_id = ? AND (category = ? OR category = '' OR category IS NULL)",
		userID, carID, category).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("find reminders for dedup: %w", err)
	}

	wanted := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		wanted[a] = struct{}{}
	}

	out := candidates[:0]
	for _, rem := range candidates {
		if rem.Category == category {
			out = append(out, rem)
			continue
		}
		if _, ok := wanted[reminder.Normalize(rem.Title)]; ok {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (r *ReminderRepository) Delete(ctx context.Context, userID uint, id string) error {
	if err := conn(ctx, r.db).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.Reminder{}).Error; err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// DeleteByBaseEntry removes every reminder generated from eventID and returns
// what was removed.
func (r *ReminderRepository) DeleteByBaseEntry(ctx context.Context, userID uint, carID, eventID string) ([]model.Reminder, error) {
	var removed []model.Reminder
	err := WithTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		if err := db.Where("user_id = ? AND car_id = ? AND base_entry_ref = ?", userID, carID, eventID).
			Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		ids := make([]string, 0, len(removed))
		for _, rem := range removed {
			ids = append(ids, rem.ID)
		}
		return db.Where("id IN ?", ids).Delete(&model.Reminder{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete reminders for event %s: %w", eventID, err)
	}
	return removed, nil
}

// UpdateEnrichment attaches collaborator metadata to a reminder.
func (r *ReminderRepository) UpdateEnrichment(ctx context.Context, id string, e *model.OilEnrichment) error {
	res := conn(ctx, r.db).Model(&model.Reminder{}).Where("id = ?", id).
		Updates(model.Reminder{Enrichment: e})
	if res.Error != nil {
		return fmt.Errorf("update enrichment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
