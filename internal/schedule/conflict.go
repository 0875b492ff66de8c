// Package schedule decides whether a proposed booking fits on an equipment's
// schedule without overlapping an existing one.
package schedule

import (
	"time"

	"equipment-tracker-backend/internal/model"
)

// Conflict describes the existing booking that blocks a proposed one.
type Conflict struct {
	OrderID     int
	OrderNumber string
	Start       time.Time
	End         time.Time
}

// Check evaluates a proposed booking window [start, start+slot) against the
// given bookings on the same equipment. Orders matching excludeOrderID are
// skipped so an order being rescheduled does not conflict with itself.
//
// Windows are half-open: a booking ending exactly when another starts is not
// a conflict. The first overlapping booking in input order is reported; the
// caller supplies bookings in a stable order (ascending id).
func Check(bookings []model.Order, excludeOrderID int, start time.Time, slot time.Duration) *Conflict {
	end := start.Add(slot)

	for _, b := range bookings {
		if b.ID == excludeOrderID {
			continue
		}
		if b.ScheduledStartTime == nil || b.Status.Terminal() {
			continue
		}

		bStart := *b.ScheduledStartTime
		bEnd := bStart.Add(slot)

		if start.Before(bEnd) && end.After(bStart) {
			return &Conflict{
				OrderID:     b.ID,
				OrderNumber: b.OrderNumber,
				Start:       bStart,
				End:         bEnd,
			}
		}
	}
	return nil
}
