package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"equipment-tracker-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

func TestGormStore_RecordStateChange(t *testing.T) {
	change := &model.StateChange{
		ID:          uuid.New(),
		EquipmentID: 5,
		State:       model.StateRed,
		Timestamp:   time.Now().UTC(),
		ChangedByID: uuid.New(),
	}

	t.Run("append and projection update commit together", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "state_changes"`)).
			WithArgs(Any{}, 5, int64(model.StateRed), Any{}, Any{}).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "equipment" SET "current_state"=$1 WHERE id = $2`)).
			WithArgs(int64(model.StateRed), 5).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := s.RecordStateChange(context.Background(), change)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed append rolls back without touching the projection", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "state_changes"`)).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := s.RecordStateChange(context.Background(), change)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed projection update rolls back the append", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "state_changes"`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "equipment"`)).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := s.RecordStateChange(context.Background(), change)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_GetEquipmentNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "equipment"`)).
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "current_state"}))

	_, err := s.GetEquipment(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_BookingsForEquipmentFilters(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE assigned_equipment_id = $1 AND status NOT IN ($2,$3) AND scheduled_start_time IS NOT NULL ORDER BY id`)).
		WithArgs(3, int64(model.OrderCompleted), int64(model.OrderCancelled)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "status", "scheduled_start_time", "assigned_equipment_id"}).
			AddRow(1, "ORD-001", int64(model.OrderScheduled), start, 3))

	bookings, err := s.BookingsForEquipment(context.Background(), 3)
	assert.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "ORD-001", bookings[0].OrderNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
