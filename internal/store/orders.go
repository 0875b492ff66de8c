package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"equipment-tracker-backend/internal/model"
)

func (s *gormStore) BookingsForEquipment(ctx context.Context, equipmentID int) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).
		Where("assigned_equipment_id = ?", equipmentID).
		Where("status NOT IN ?", []model.OrderStatus{model.OrderCompleted, model.OrderCancelled}).
		Where("scheduled_start_time IS NOT NULL").
		Order("id").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bookings for equipment %d: %w", equipmentID, err)
	}
	return orders, nil
}

func (s *gormStore) GetOrder(ctx context.Context, id int) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %d: %w", id, err)
	}
	return &order, nil
}

func (s *gormStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *gormStore) OrdersByEquipment(ctx context.Context, equipmentID int) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).
		Where("assigned_equipment_id = ?", equipmentID).
		Order("id").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders for equipment %d: %w", equipmentID, err)
	}
	return orders, nil
}

func (s *gormStore) OrdersByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders with status %s: %w", status, err)
	}
	return orders, nil
}

func (s *gormStore) ScheduledOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).
		Where("status IN ?", []model.OrderStatus{model.OrderPending, model.OrderScheduled}).
		Order("assigned_equipment_id").
		Order("scheduled_start_time").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch scheduled orders: %w", err)
	}
	return orders, nil
}

func (s *gormStore) ScheduledOrdersForEquipment(ctx context.Context, equipmentID int) ([]model.Order, error) {
	var orders []model.Order
	if err := s.db.WithContext(ctx).
		Where("assigned_equipment_id = ?", equipmentID).
		Where("status IN ?", []model.OrderStatus{model.OrderPending, model.OrderScheduled}).
		Order("scheduled_start_time").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch scheduled orders for equipment %d: %w", equipmentID, err)
	}
	return orders, nil
}

func (s *gormStore) InsertOrder(ctx context.Context, order *model.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateOrder(ctx context.Context, order *model.Order) error {
	if err := s.db.WithContext(ctx).Save(order).Error; err != nil {
		return fmt.Errorf("failed to update order %d: %w", order.ID, err)
	}
	return nil
}

func (s *gormStore) DeleteOrder(ctx context.Context, id int) error {
	if err := s.db.WithContext(ctx).Delete(&model.Order{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return nil
}

func (s *gormStore) SubscriptionsForEquipment(ctx context.Context, equipmentID int) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_equipment_mapping sem ON sem.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sem.equipment_id = ?", equipmentID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for equipment %d: %w", equipmentID, err)
	}
	return subscriptions, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}
