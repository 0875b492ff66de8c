// Package orders implements order admission: conflict-checked creation and
// rescheduling of production orders against equipment schedules.
package orders

import (
	"context"
	"fmt"
	"time"

	"equipment-tracker-backend/internal/model"
	"equipment-tracker-backend/internal/schedule"
	"equipment-tracker-backend/internal/store"
)

const conflictTimeLayout = "2006-01-02 15:04"

// ConflictError is returned when a proposed booking overlaps an existing
// non-terminal booking on the same equipment. The message is surfaced to the
// caller verbatim.
type ConflictError struct {
	OrderNumber string
	Start       time.Time
	End         time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"cannot schedule order: equipment is already scheduled for another order (%s) from %s to %s; please choose a different time slot",
		e.OrderNumber,
		e.Start.Format(conflictTimeLayout),
		e.End.Format(conflictTimeLayout),
	)
}

// Service admits production orders into the store.
type Service struct {
	store store.Store
	slot  time.Duration
}

// NewService creates an admission service. slot is the fixed duration every
// scheduled order occupies its equipment for.
func NewService(s store.Store, slot time.Duration) *Service {
	return &Service{store: s, slot: slot}
}

// Create admits a new order. A draft carrying both an equipment assignment
// and a scheduled start is validated against that equipment's bookings first.
// The stored order always starts out Pending with its creation time stamped.
func (s *Service) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	if err := s.checkSchedule(ctx, order); err != nil {
		return nil, err
	}

	order.CreatedAt = time.Now().UTC()
	order.Status = model.OrderPending

	if err := s.store.InsertOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateFields is the set of order fields a caller may change. Pointers and
// optionals are applied wholesale; there is no per-field merge.
type UpdateFields struct {
	OrderNumber         string
	ProductName         string
	QuantityRequested   int
	QuantityProduced    int
	Priority            model.OrderPriority
	ScheduledStartTime  *time.Time
	EstimatedEndTime    *time.Time
	AssignedEquipmentID *int
}

// Update reschedules an existing order. The order's own booking is excluded
// from the conflict candidate set. An unknown id fails with store.ErrNotFound.
func (s *Service) Update(ctx context.Context, id int, fields UpdateFields) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	order.OrderNumber = fields.OrderNumber
	order.ProductName = fields.ProductName
	order.QuantityRequested = fields.QuantityRequested
	order.QuantityProduced = fields.QuantityProduced
	order.Priority = fields.Priority
	order.ScheduledStartTime = fields.ScheduledStartTime
	order.EstimatedEndTime = fields.EstimatedEndTime
	order.AssignedEquipmentID = fields.AssignedEquipmentID

	if err := s.checkSchedule(ctx, order); err != nil {
		return nil, err
	}

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Delete removes an order. Deleting an unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.store.DeleteOrder(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int) (*model.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]model.Order, error) {
	return s.store.ListOrders(ctx)
}

func (s *Service) ByEquipment(ctx context.Context, equipmentID int) ([]model.Order, error) {
	return s.store.OrdersByEquipment(ctx, equipmentID)
}

func (s *Service) ByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return s.store.OrdersByStatus(ctx, status)
}

// Scheduled returns the orders still occupying or awaiting a slot, across all
// equipment.
func (s *Service) Scheduled(ctx context.Context) ([]model.Order, error) {
	return s.store.ScheduledOrders(ctx)
}

func (s *Service) ScheduledByEquipment(ctx context.Context, equipmentID int) ([]model.Order, error) {
	return s.store.ScheduledOrdersForEquipment(ctx, equipmentID)
}

// checkSchedule runs the conflict detector when the order carries a booking.
// Orders without an assignment or a start time are always admitted.
func (s *Service) checkSchedule(ctx context.Context, order *model.Order) error {
	if order.AssignedEquipmentID == nil || order.ScheduledStartTime == nil {
		return nil
	}

	bookings, err := s.store.BookingsForEquipment(ctx, *order.AssignedEquipmentID)
	if err != nil {
		return err
	}

	if c := schedule.Check(bookings, order.ID, *order.ScheduledStartTime, s.slot); c != nil {
		return &ConflictError{
			OrderNumber: c.OrderNumber,
			Start:       c.Start,
			End:         c.End,
		}
	}
	return nil
}
