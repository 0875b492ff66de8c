package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"equipment-tracker-backend/config"
	"equipment-tracker-backend/internal/mw"
	"equipment-tracker-backend/internal/orders"
	"equipment-tracker-backend/internal/propagate"
	"equipment-tracker-backend/internal/realtime"
	"equipment-tracker-backend/internal/store"
)

// Burst allowance on top of the configured per-second rate.
const rateLimitBurst = 5

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, pipeline *propagate.Pipeline, orderSvc *orders.Service, hub *realtime.Hub, webpushOptions *webpush.Options, srv config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, pipeline, orderSvc, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(srv.RateLimitPerSec), rateLimitBurst)

	cacheTTL := time.Duration(srv.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", handler.GetHealth)

		// Equipment state and history. The events stream must never be
		// cached; the list endpoints tolerate a short cache window.
		api.GET("/equipment", handler.GetEquipmentList)
		api.GET("/equipment/events", hub.Serve)
		api.GET("/equipment/history", caching, handler.GetHistory)
		api.GET("/equipment/:id", handler.GetEquipment)
		api.GET("/equipment/:id/history", caching, handler.GetEquipmentHistory)
		api.GET("/equipment/:id/status", handler.GetLatestStatus)
		api.POST("/equipment/:id/state", handler.ChangeEquipmentState)

		// Production orders
		api.GET("/orders", handler.GetOrders)
		api.POST("/orders", handler.CreateOrder)
		api.GET("/orders/scheduled", handler.GetScheduledOrders)
		api.GET("/orders/scheduled/equipment/:equipment_id", handler.GetScheduledOrdersByEquipment)
		api.GET("/orders/equipment/:equipment_id", handler.GetOrdersByEquipment)
		api.GET("/orders/status/:status", handler.GetOrdersByStatus)
		api.GET("/orders/:id", handler.GetOrder)
		api.PUT("/orders/:id", handler.UpdateOrder)
		api.DELETE("/orders/:id", handler.DeleteOrder)

		// Push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
