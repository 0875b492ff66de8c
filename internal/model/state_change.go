package model

import (
	"time"

	"github.com/google/uuid"
)

// StateChange is one entry in the append-only equipment state history.
// Rows are never updated or deleted once written.
type StateChange struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EquipmentID int            `gorm:"not null;index" json:"equipmentId"`
	State       EquipmentState `gorm:"not null" json:"state"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	ChangedByID uuid.UUID      `gorm:"type:uuid;not null" json:"changedById"`
}
