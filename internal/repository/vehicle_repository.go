package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"carkeeper/internal/model"
)

// VehicleRepository handles CRUD for vehicles.
type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Create(ctx context.Context, v *model.Vehicle) error {
	if err := conn(ctx, r.db).Create(v).Error; err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) Get(ctx context.Context, userID uint, id string) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := conn(ctx, r.db).Where("user_id = ? AND id = ?", userID, id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) ListByUser(ctx context.Context, userID uint) ([]model.Vehicle, error) {
	var out []model.Vehicle
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VehicleRepository) Save(ctx context.Context, v *model.Vehicle) error {
	if err := conn(ctx, r.db).Save(v).Error; err != nil {
		return fmt.Errorf("save vehicle: %w", err)
	}
	return nil
}
