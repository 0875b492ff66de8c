package model

// EquipmentState is the traffic-light state of a piece of equipment.
type EquipmentState int

const (
	StateRed EquipmentState = iota
	StateYellow
	StateGreen
)

// String returns the human-readable label used in notification payloads.
func (s EquipmentState) String() string {
	switch s {
	case StateRed:
		return "Red"
	case StateYellow:
		return "Yellow"
	case StateGreen:
		return "Green"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the three known states.
func (s EquipmentState) Valid() bool {
	return s >= StateRed && s <= StateGreen
}

// Equipment represents a single machine on the shop floor.
type Equipment struct {
	ID           int            `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:256;not null" json:"name"`
	CurrentState EquipmentState `gorm:"not null" json:"currentState"`
	// Order currently running on this equipment, if any.
	CurrentOrderID *int `json:"currentOrderId"`
}
