package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"carkeeper/internal/model"
)

// UserRepository stores the Telegram identities every principal maps to.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram returns the user for telegramID, creating it on first
// contact and refreshing the profile fields otherwise.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	var user model.User
	err := conn(ctx, r.db).
		Where(model.User{TelegramID: telegramID}).
		Assign(map[string]any{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", telegramID, err)
	}
	return &user, nil
}

// ListDigestRecipients returns users that own at least one vehicle.
func (r *UserRepository) ListDigestRecipients(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := conn(ctx, r.db).
		Where("EXISTS (SELECT 1 FROM vehicles WHERE vehicles.user_id = users.id)").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list digest recipients: %w", err)
	}
	return users, nil
}

// MarkDigestSent records when the last digest went out to the user.
func (r *UserRepository) MarkDigestSent(ctx context.Context, userID uint, at time.Time) error {
	if err := conn(ctx, r.db).Model(&model.User{}).Where("id = ?", userID).
		UpdateColumn("last_digest_at", at).Error; err != nil {
		return fmt.Errorf("mark digest sent: %w", err)
	}
	return nil
}
