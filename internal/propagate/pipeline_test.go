package propagate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"equipment-tracker-backend/internal/model"
	"equipment-tracker-backend/internal/store"
)

const broadcastTimeout = 200 * time.Millisecond

var actor = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// fakeBroadcaster records notifications and can be made to fail.
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []StateChangedMessage
	err      error
}

func (b *fakeBroadcaster) Notify(ctx context.Context, topic string, msg StateChangedMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.messages = append(b.messages, msg)
	return nil
}

func (b *fakeBroadcaster) last(t *testing.T) StateChangedMessage {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.messages)
	return b.messages[len(b.messages)-1]
}

// fakePublisher records publishes; block makes Publish hang until released.
type fakePublisher struct {
	mu        sync.Mutex
	published [][]byte
	err       error
	block     chan struct{}
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, body []byte) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, body)
	return nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Equipment{}, &model.StateChange{}))

	require.NoError(t, db.Create(&model.Equipment{
		ID:           5,
		Name:         "Roughing 1",
		CurrentState: model.StateGreen,
	}).Error)

	return store.NewGormStore(db)
}

func TestChangeState_UnknownEquipmentProducesNoHistory(t *testing.T) {
	s := newTestStore(t)
	p := NewPipeline(s, &fakeBroadcaster{}, &fakePublisher{}, nil, broadcastTimeout)

	_, err := p.ChangeState(context.Background(), 99, model.StateRed, actor)
	assert.ErrorIs(t, err, store.ErrNotFound)

	history, err := s.StateChangeHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChangeState_AppendsHistoryAndUpdatesProjection(t *testing.T) {
	s := newTestStore(t)
	b := &fakeBroadcaster{}
	p := NewPipeline(s, b, &fakePublisher{}, nil, broadcastTimeout)

	change, err := p.ChangeState(context.Background(), 5, model.StateRed, actor)
	require.NoError(t, err)
	assert.Equal(t, model.StateRed, change.State)
	assert.Equal(t, 5, change.EquipmentID)
	assert.Equal(t, actor, change.ChangedByID)
	assert.NotEqual(t, uuid.Nil, change.ID)

	// Exactly one history record, and the projection reflects it.
	history, err := s.EquipmentHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, change.ID, history[0].ID)

	equipment, err := s.GetEquipment(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.StateRed, equipment.CurrentState)
}

func TestChangeState_BroadcastPayload(t *testing.T) {
	s := newTestStore(t)
	b := &fakeBroadcaster{}
	p := NewPipeline(s, b, &fakePublisher{}, nil, broadcastTimeout)

	change, err := p.ChangeState(context.Background(), 5, model.StateYellow, actor)
	require.NoError(t, err)

	msg := b.last(t)
	assert.Equal(t, Topic, msg.Topic)
	assert.Equal(t, 5, msg.EquipmentID)
	assert.Equal(t, "Roughing 1", msg.EquipmentName)
	assert.Equal(t, model.StateYellow, msg.State)
	assert.Equal(t, "Yellow", msg.StateLabel)
	assert.Equal(t, change.Timestamp, msg.Timestamp)
	assert.Equal(t, actor, msg.ChangedBy)
}

func TestChangeState_FailingBroadcasterDoesNotFailOperation(t *testing.T) {
	s := newTestStore(t)
	b := &fakeBroadcaster{err: errors.New("no clients")}
	p := NewPipeline(s, b, &fakePublisher{}, nil, broadcastTimeout)

	change, err := p.ChangeState(context.Background(), 5, model.StateRed, actor)
	require.NoError(t, err)
	require.NotNil(t, change)

	// The store changes are still visible.
	equipment, err := s.GetEquipment(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.StateRed, equipment.CurrentState)
}

func TestChangeState_FailingPublisherDoesNotFailOperation(t *testing.T) {
	s := newTestStore(t)
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	p := NewPipeline(s, &fakeBroadcaster{}, pub, nil, broadcastTimeout)

	_, err := p.ChangeState(context.Background(), 5, model.StateRed, actor)
	require.NoError(t, err)

	drainCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Close(drainCtx))
}

func TestChangeState_LatencyIndependentOfPublisher(t *testing.T) {
	s := newTestStore(t)
	pub := &fakePublisher{block: make(chan struct{})}
	p := NewPipeline(s, &fakeBroadcaster{}, pub, nil, broadcastTimeout)

	startedAt := time.Now()
	_, err := p.ChangeState(context.Background(), 5, model.StateRed, actor)
	require.NoError(t, err)

	// The caller's return must not be gated on the hanging publish.
	assert.Less(t, time.Since(startedAt), time.Second)

	// Close abandons the stuck publish at its deadline.
	drainCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Close(drainCtx))

	close(pub.block)
}

func TestChangeState_PublisherReceivesMessage(t *testing.T) {
	s := newTestStore(t)
	pub := &fakePublisher{}
	p := NewPipeline(s, &fakeBroadcaster{}, pub, nil, broadcastTimeout)

	_, err := p.ChangeState(context.Background(), 5, model.StateGreen, actor)
	require.NoError(t, err)

	drainCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Close(drainCtx))

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.published, 1)
	assert.Contains(t, string(pub.published[0]), `"equipmentId":5`)
	assert.Contains(t, string(pub.published[0]), `"stateLabel":"Green"`)
}

func TestChangeState_SequentialHistoryIsComplete(t *testing.T) {
	s := newTestStore(t)
	p := NewPipeline(s, &fakeBroadcaster{}, &fakePublisher{}, nil, broadcastTimeout)

	states := []model.EquipmentState{model.StateRed, model.StateYellow, model.StateGreen, model.StateRed}
	for _, st := range states {
		_, err := p.ChangeState(context.Background(), 5, st, actor)
		require.NoError(t, err)
	}

	history, err := s.EquipmentHistory(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, history, len(states))

	// History is served latest-first; the projection matches its head.
	equipment, err := s.GetEquipment(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, history[0].State, equipment.CurrentState)
}

func TestChangeState_ConcurrentCallsAllAppendHistory(t *testing.T) {
	s := newTestStore(t)

	// A single pool connection keeps every goroutine on the same in-memory
	// database and forces the transactions to interleave through it.
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	p := NewPipeline(s, &fakeBroadcaster{}, &fakePublisher{}, nil, broadcastTimeout)

	const calls = 10
	states := []model.EquipmentState{model.StateRed, model.StateYellow, model.StateGreen}

	var wg sync.WaitGroup
	errs := make([]error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = p.ChangeState(context.Background(), 5, states[i%len(states)], actor)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoErrorf(t, err, "call %d", i)
	}

	// No call lost its history row, and the projection reflects one of the
	// submitted states.
	history, err := s.EquipmentHistory(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, history, calls)

	equipment, err := s.GetEquipment(context.Background(), 5)
	require.NoError(t, err)
	assert.Contains(t, states, equipment.CurrentState)
}

// alertRecorder captures dispatched alert jobs.
type alertRecorder struct {
	mu  sync.Mutex
	ids []int
}

func (r *alertRecorder) Dispatch(equipmentID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, equipmentID)
}

func TestChangeState_RedStateDispatchesAlert(t *testing.T) {
	s := newTestStore(t)
	alerts := &alertRecorder{}
	p := NewPipeline(s, &fakeBroadcaster{}, &fakePublisher{}, alerts, broadcastTimeout)

	_, err := p.ChangeState(context.Background(), 5, model.StateRed, actor)
	require.NoError(t, err)

	_, err = p.ChangeState(context.Background(), 5, model.StateGreen, actor)
	require.NoError(t, err)

	alerts.mu.Lock()
	defer alerts.mu.Unlock()
	assert.Equal(t, []int{5}, alerts.ids)
}
