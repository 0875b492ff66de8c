package propagate

import (
	"time"

	"github.com/google/uuid"

	"equipment-tracker-backend/internal/model"
)

// Topic is the channel every equipment state change is announced on.
const Topic = "equipment-state-changes"

// StateChangedMessage is the notification payload delivered to both the
// real-time channel and the external event bus. Field names are part of the
// wire contract with existing consumers.
type StateChangedMessage struct {
	Topic         string               `json:"topic"`
	EquipmentID   int                  `json:"equipmentId"`
	EquipmentName string               `json:"equipmentName"`
	State         model.EquipmentState `json:"state"`
	StateLabel    string               `json:"stateLabel"`
	Timestamp     time.Time            `json:"timestamp"`
	ChangedBy     uuid.UUID            `json:"changedBy"`
}

func newStateChangedMessage(equipmentName string, change *model.StateChange) StateChangedMessage {
	return StateChangedMessage{
		Topic:         Topic,
		EquipmentID:   change.EquipmentID,
		EquipmentName: equipmentName,
		State:         change.State,
		StateLabel:    change.State.String(),
		Timestamp:     change.Timestamp,
		ChangedBy:     change.ChangedByID,
	}
}
