package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	"equipment-tracker-backend/internal/orders"
	"equipment-tracker-backend/internal/propagate"
	"equipment-tracker-backend/internal/store"
)

// testActor is the placeholder caller identity stamped on state changes until
// real authentication lands in the gateway.
var testActor = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	pipeline *propagate.Pipeline
	orders   *orders.Service
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, pipeline *propagate.Pipeline, orderSvc *orders.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		pipeline: pipeline,
		orders:   orderSvc,
		webpush:  webpushOptions,
	}
}
