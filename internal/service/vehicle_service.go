package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carkeeper/internal/auth"
	"carkeeper/internal/model"
)

// VehicleInput represents data required to register a vehicle.
type VehicleInput struct {
	Name               string
	CurrentOdometerKm  *int
	AverageKmPerMonth  *int
	NextInspectionDate *time.Time
	OilSpec            string
}

// VehicleService registers vehicles and tracks their odometer.
type VehicleService struct {
	vehicles     VehicleStore
	provisioning *ProvisioningService
}

func NewVehicleService(vehicles VehicleStore, provisioning *ProvisioningService) *VehicleService {
	return &VehicleService{vehicles: vehicles, provisioning: provisioning}
}

// Register stores the vehicle and seeds its starter reminders.
func (s *VehicleService) Register(ctx context.Context, p auth.Principal, in VehicleInput) (*model.Vehicle, []Provisioned, error) {
	if err := auth.Require(p); err != nil {
		return nil, nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, invalid("vehicle name is required")
	}
	if in.CurrentOdometerKm != nil && *in.CurrentOdometerKm < 0 {
		return nil, nil, invalid("odometer must not be negative")
	}
	if in.AverageKmPerMonth != nil && *in.AverageKmPerMonth < 0 {
		return nil, nil, invalid("average km per month must not be negative")
	}

	v := model.Vehicle{
		UserID:             p.UserID,
		Name:               name,
		CurrentOdometerKm:  in.CurrentOdometerKm,
		AverageKmPerMonth:  in.AverageKmPerMonth,
		NextInspectionDate: in.NextInspectionDate,
		OilSpec:            strings.TrimSpace(in.OilSpec),
	}
	if err := s.vehicles.Create(ctx, &v); err != nil {
		return nil, nil, err
	}

	provisioned, err := s.provisioning.Provision(ctx, p, v)
	if err != nil {
		return &v, nil, err
	}
	return &v, provisioned, nil
}

// UpdateOdometer records a new reading. Readings never go backwards.
func (s *VehicleService) UpdateOdometer(ctx context.Context, p auth.Principal, carID string, km int) (*model.Vehicle, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	v, err := s.vehicles.Get(ctx, p.UserID, carID)
	if err != nil {
		return nil, notFound("vehicle", err)
	}
	if km < 0 {
		return nil, invalid("odometer must not be negative")
	}
	if v.CurrentOdometerKm != nil && km < *v.CurrentOdometerKm {
		return nil, invalid("odometer %d km is below the recorded %d km", km, *v.CurrentOdometerKm)
	}
	v.CurrentOdometerKm = &km
	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// raiseOdometer bumps the reading when a maintenance record reports a higher
// one. Lower readings are ignored since history may be logged late.
func (s *VehicleService) raiseOdometer(ctx context.Context, v *model.Vehicle, km *int) error {
	if km == nil || (v.CurrentOdometerKm != nil && *km <= *v.CurrentOdometerKm) {
		return nil
	}
	reading := *km
	v.CurrentOdometerKm = &reading
	if err := s.vehicles.Save(ctx, v); err != nil {
		return fmt.Errorf("raise odometer: %w", err)
	}
	return nil
}

func (s *VehicleService) List(ctx context.Context, p auth.Principal) ([]model.Vehicle, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	return s.vehicles.ListByUser(ctx, p.UserID)
}

func (s *VehicleService) Get(ctx context.Context, p auth.Principal, carID string) (*model.Vehicle, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	v, err := s.vehicles.Get(ctx, p.UserID, carID)
	if err != nil {
		return nil, notFound("vehicle", err)
	}
	return v, nil
}
