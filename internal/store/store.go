package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"equipment-tracker-backend/internal/model"
)

// ErrNotFound is returned when a referenced equipment or order does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	GetEquipment(ctx context.Context, id int) (*model.Equipment, error)
	ListEquipment(ctx context.Context) ([]model.Equipment, error)
	// RecordStateChange appends a history record and updates the equipment's
	// current-state projection as one durable unit.
	RecordStateChange(ctx context.Context, change *model.StateChange) error
	StateChangeHistory(ctx context.Context) ([]model.StateChange, error)
	EquipmentHistory(ctx context.Context, equipmentID int) ([]model.StateChange, error)
	LatestStateChange(ctx context.Context, equipmentID int) (*model.StateChange, error)

	// BookingsForEquipment returns the orders that currently occupy the
	// equipment's schedule: non-terminal status with a scheduled start time,
	// in ascending id order.
	BookingsForEquipment(ctx context.Context, equipmentID int) ([]model.Order, error)
	GetOrder(ctx context.Context, id int) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	OrdersByEquipment(ctx context.Context, equipmentID int) ([]model.Order, error)
	OrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	// ScheduledOrders returns the orders still awaiting or holding a slot
	// (Pending or Scheduled), grouped by equipment then by start time.
	ScheduledOrders(ctx context.Context) ([]model.Order, error)
	ScheduledOrdersForEquipment(ctx context.Context, equipmentID int) ([]model.Order, error)
	InsertOrder(ctx context.Context, order *model.Order) error
	UpdateOrder(ctx context.Context, order *model.Order) error
	DeleteOrder(ctx context.Context, id int) error

	SubscriptionsForEquipment(ctx context.Context, equipmentID int) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetEquipment(ctx context.Context, id int) (*model.Equipment, error) {
	var eq model.Equipment
	err := s.db.WithContext(ctx).First(&eq, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch equipment %d: %w", id, err)
	}
	return &eq, nil
}

func (s *gormStore) ListEquipment(ctx context.Context) ([]model.Equipment, error) {
	var list []model.Equipment
	if err := s.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	return list, nil
}

// RecordStateChange commits the history append and the projection update in a
// single transaction, so a reader can never observe one without the other.
func (s *gormStore) RecordStateChange(ctx context.Context, change *model.StateChange) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(change).Error; err != nil {
			return fmt.Errorf("failed to append state change for equipment %d: %w", change.EquipmentID, err)
		}
		if err := tx.Model(&model.Equipment{}).
			Where("id = ?", change.EquipmentID).
			Update("current_state", change.State).Error; err != nil {
			return fmt.Errorf("failed to update current state for equipment %d: %w", change.EquipmentID, err)
		}
		return nil
	})
}

func (s *gormStore) StateChangeHistory(ctx context.Context) ([]model.StateChange, error) {
	var changes []model.StateChange
	if err := s.db.WithContext(ctx).Order("timestamp DESC").Find(&changes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch state change history: %w", err)
	}
	return changes, nil
}

func (s *gormStore) EquipmentHistory(ctx context.Context, equipmentID int) ([]model.StateChange, error) {
	var changes []model.StateChange
	if err := s.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("timestamp DESC").
		Find(&changes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history for equipment %d: %w", equipmentID, err)
	}
	return changes, nil
}

func (s *gormStore) LatestStateChange(ctx context.Context, equipmentID int) (*model.StateChange, error) {
	var change model.StateChange
	err := s.db.WithContext(ctx).
		Where("equipment_id = ?", equipmentID).
		Order("timestamp DESC").
		First(&change).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest state change for equipment %d: %w", equipmentID, err)
	}
	return &change, nil
}
