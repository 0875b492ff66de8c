// Package propagate orchestrates equipment state changes: validate, persist,
// update the current-state projection, then fan the change out to the
// real-time channel and the external event bus.
//
// The store write is the only step whose durability matters to readers. The
// two notification sinks have different reliability classes: the real-time
// channel is best-effort and bounded by a short timeout, the bus publish runs
// detached from the caller entirely. Neither can fail the operation.
package propagate

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"equipment-tracker-backend/internal/model"
	"equipment-tracker-backend/internal/store"
)

// Broadcaster pushes a state-change notification to currently connected
// observers. Delivery is best-effort; no durability is expected.
type Broadcaster interface {
	Notify(ctx context.Context, topic string, msg StateChangedMessage) error
}

// Publisher hands a notification to a durable external bus. It may be slow or
// unavailable; errors must be catchable without propagating.
type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
}

// AlertDispatcher queues a push alert for an equipment unit. Fire-and-forget.
type AlertDispatcher interface {
	Dispatch(equipmentID int)
}

// Pipeline executes state changes against the store and propagates them.
type Pipeline struct {
	store            store.Store
	broadcaster      Broadcaster
	publisher        Publisher
	alerts           AlertDispatcher
	broadcastTimeout time.Duration

	publishes sync.WaitGroup
}

// NewPipeline wires a propagation pipeline. alerts may be nil when push
// notifications are not configured.
func NewPipeline(s store.Store, b Broadcaster, p Publisher, alerts AlertDispatcher, broadcastTimeout time.Duration) *Pipeline {
	return &Pipeline{
		store:            s,
		broadcaster:      b,
		publisher:        p,
		alerts:           alerts,
		broadcastTimeout: broadcastTimeout,
	}
}

// ChangeState records a state transition for the given equipment and fans it
// out. It returns the appended history record.
//
// Only the equipment lookup and the persistence step can fail the operation;
// broadcast and publish failures are logged and swallowed. The returned
// record is durable before either notification sink is attempted.
func (p *Pipeline) ChangeState(ctx context.Context, equipmentID int, newState model.EquipmentState, actor uuid.UUID) (*model.StateChange, error) {
	equipment, err := p.store.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	change := &model.StateChange{
		ID:          uuid.New(),
		EquipmentID: equipmentID,
		State:       newState,
		Timestamp:   time.Now().UTC(),
		ChangedByID: actor,
	}

	// History append and projection update commit as one unit.
	if err := p.store.RecordStateChange(ctx, change); err != nil {
		return nil, err
	}

	msg := newStateChangedMessage(equipment.Name, change)

	p.broadcast(ctx, msg)
	p.publishAsync(msg)

	if p.alerts != nil && newState == model.StateRed {
		p.alerts.Dispatch(equipmentID)
	}

	return change, nil
}

// broadcast attempts best-effort delivery to connected observers, bounded by
// the configured timeout. Failure never fails the operation.
func (p *Pipeline) broadcast(ctx context.Context, msg StateChangedMessage) {
	bctx, cancel := context.WithTimeout(ctx, p.broadcastTimeout)
	defer cancel()

	if err := p.broadcaster.Notify(bctx, Topic, msg); err != nil {
		log.Printf("Broadcast of state change for equipment %d failed: %v", msg.EquipmentID, err)
		return
	}
	log.Printf("Broadcasted equipment %d state change to connected clients", msg.EquipmentID)
}

// publishAsync hands the message to the event bus on its own goroutine. The
// caller's response is never gated on it, and a panicking or hanging publish
// cannot reach the caller. In-flight publishes are tracked so Close can
// drain them on shutdown.
func (p *Pipeline) publishAsync(msg StateChangedMessage) {
	p.publishes.Add(1)
	go func() {
		defer p.publishes.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Recovered panic in bus publish for equipment %d: %v", msg.EquipmentID, r)
			}
		}()

		body, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to encode bus message for equipment %d: %v", msg.EquipmentID, err)
			return
		}

		// The caller has already returned; the publish gets its own context.
		if err := p.publisher.Publish(context.Background(), Topic, body); err != nil {
			log.Printf("Failed to publish state change for equipment %d to event bus. Database update succeeded: %v", msg.EquipmentID, err)
			return
		}
		log.Printf("Published state change for equipment %d to event bus", msg.EquipmentID)
	}()
}

// Close waits for in-flight bus publishes to finish, up to the context
// deadline. Publishes still running at the deadline are abandoned; the bus
// offers no delivery guarantee from this layer anyway.
func (p *Pipeline) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.publishes.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		log.Printf("Abandoning in-flight bus publishes: %v", ctx.Err())
		return ctx.Err()
	}
}

// Read-side passthroughs used by the API layer.

func (p *Pipeline) Equipment(ctx context.Context, id int) (*model.Equipment, error) {
	return p.store.GetEquipment(ctx, id)
}

func (p *Pipeline) ListEquipment(ctx context.Context) ([]model.Equipment, error) {
	return p.store.ListEquipment(ctx)
}

func (p *Pipeline) History(ctx context.Context) ([]model.StateChange, error) {
	return p.store.StateChangeHistory(ctx)
}

func (p *Pipeline) EquipmentHistory(ctx context.Context, id int) ([]model.StateChange, error) {
	return p.store.EquipmentHistory(ctx, id)
}

func (p *Pipeline) LatestStatus(ctx context.Context, id int) (*model.StateChange, error) {
	return p.store.LatestStateChange(ctx, id)
}
