package model

import "time"

// OrderStatus is the lifecycle status of a production order.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderScheduled
	OrderInProgress
	OrderCompleted
	OrderCancelled
)

// Terminal reports whether the status is an end state. Orders in a terminal
// status no longer occupy their equipment's schedule.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderScheduled:
		return "Scheduled"
	case OrderInProgress:
		return "InProgress"
	case OrderCompleted:
		return "Completed"
	case OrderCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// OrderPriority ranks orders for the supervisor dashboard.
type OrderPriority int

const (
	PriorityLow OrderPriority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Order represents a production order. AssignedEquipmentID plus
// ScheduledStartTime, when both set, form a booking on that equipment.
type Order struct {
	ID                  int           `gorm:"primaryKey" json:"id"`
	OrderNumber         string        `gorm:"size:64;not null" json:"orderNumber"`
	ProductName         string        `gorm:"size:256;not null" json:"productName"`
	QuantityRequested   int           `gorm:"not null" json:"quantityRequested"`
	QuantityProduced    int           `gorm:"not null" json:"quantityProduced"`
	CreatedAt           time.Time     `gorm:"not null" json:"createdAt"`
	ScheduledStartTime  *time.Time    `json:"scheduledStartTime"`
	EstimatedEndTime    *time.Time    `json:"estimatedEndTime"`
	ActualStartTime     *time.Time    `json:"actualStartTime"`
	CompletedAt         *time.Time    `json:"completedAt"`
	Status              OrderStatus   `gorm:"not null;index" json:"status"`
	Priority            OrderPriority `gorm:"not null" json:"priority"`
	AssignedEquipmentID *int          `gorm:"index" json:"assignedEquipmentId"`
}
