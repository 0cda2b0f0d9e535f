package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"carkeeper/internal/model"
)

// MaintenanceRepository handles CRUD for maintenance events.
type MaintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

func (r *MaintenanceRepository) Create(ctx context.Context, e *model.MaintenanceEvent) error {
	if err := conn(ctx, r.db).Create(e).Error; err != nil {
		return fmt.Errorf("create maintenance event: %w", err)
	}
	return nil
}

func (r *MaintenanceRepository) Save(ctx context.Context, e *model.MaintenanceEvent) error {
	if err := conn(ctx, r.db).Save(e).Error; err != nil {
		return fmt.Errorf("save maintenance event: %w", err)
	}
	return nil
}

func (r *MaintenanceRepository) Get(ctx context.Context, userID uint, id string) (*model.MaintenanceEvent, error) {
	var e model.MaintenanceEvent
	if err := conn(ctx, r.db).Where("user_id = ? AND id = ?", userID, id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *MaintenanceRepository) ListByCar(ctx context.Context, userID uint, carID string) ([]model.MaintenanceEvent, error) {
	var out []model.MaintenanceEvent
	if err := conn(ctx, r.db).Where("user_id = ? AND car_id = ?", userID, carID).
		Order("performed_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MaintenanceRepository) Delete(ctx context.Context, userID uint, id string) error {
	if err := conn(ctx, r.db).Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.MaintenanceEvent{}).Error; err != nil {
		return fmt.Errorf("delete maintenance event: %w", err)
	}
	return nil
}
