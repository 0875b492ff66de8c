package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"equipment-tracker-backend/internal/model"
	"equipment-tracker-backend/internal/orders"
	"equipment-tracker-backend/internal/store"
)

// createOrderRequest carries the writable fields for a new order. Fields map
// one-to-one onto model.Order; adding a field means touching both this struct
// and toOrder below.
type createOrderRequest struct {
	OrderNumber         string              `json:"orderNumber" binding:"required"`
	ProductName         string              `json:"productName" binding:"required"`
	QuantityRequested   int                 `json:"quantityRequested" binding:"required,gt=0"`
	Priority            model.OrderPriority `json:"priority"`
	ScheduledStartTime  *time.Time          `json:"scheduledStartTime"`
	EstimatedEndTime    *time.Time          `json:"estimatedEndTime"`
	AssignedEquipmentID *int                `json:"assignedEquipmentId"`
}

func (r *createOrderRequest) toOrder() *model.Order {
	return &model.Order{
		OrderNumber:         r.OrderNumber,
		ProductName:         r.ProductName,
		QuantityRequested:   r.QuantityRequested,
		QuantityProduced:    0,
		Priority:            r.Priority,
		ScheduledStartTime:  r.ScheduledStartTime,
		EstimatedEndTime:    r.EstimatedEndTime,
		AssignedEquipmentID: r.AssignedEquipmentID,
	}
}

// updateOrderRequest carries the mutable fields of an existing order.
type updateOrderRequest struct {
	OrderNumber         string              `json:"orderNumber" binding:"required"`
	ProductName         string              `json:"productName" binding:"required"`
	QuantityRequested   int                 `json:"quantityRequested" binding:"required,gt=0"`
	QuantityProduced    int                 `json:"quantityProduced"`
	Priority            model.OrderPriority `json:"priority"`
	ScheduledStartTime  *time.Time          `json:"scheduledStartTime"`
	EstimatedEndTime    *time.Time          `json:"estimatedEndTime"`
	AssignedEquipmentID *int                `json:"assignedEquipmentId"`
}

func (r *updateOrderRequest) toFields() orders.UpdateFields {
	return orders.UpdateFields{
		OrderNumber:         r.OrderNumber,
		ProductName:         r.ProductName,
		QuantityRequested:   r.QuantityRequested,
		QuantityProduced:    r.QuantityProduced,
		Priority:            r.Priority,
		ScheduledStartTime:  r.ScheduledStartTime,
		EstimatedEndTime:    r.EstimatedEndTime,
		AssignedEquipmentID: r.AssignedEquipmentID,
	}
}

func validateSchedule(start, end *time.Time) string {
	if start != nil && end != nil && !end.After(*start) {
		return "Estimated end time must be after the scheduled start time"
	}
	return ""
}

// CreateOrder handles POST /api/orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateSchedule(req.ScheduledStartTime, req.EstimatedEndTime); msg != "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	order, err := h.orders.Create(c.Request.Context(), req.toOrder())
	if err != nil {
		var conflict *orders.ConflictError
		if errors.As(err, &conflict) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": conflict.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// UpdateOrder handles PUT /api/orders/:id.
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateSchedule(req.ScheduledStartTime, req.EstimatedEndTime); msg != "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	order, err := h.orders.Update(c.Request.Context(), id, req.toFields())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		var conflict *orders.ConflictError
		if errors.As(err, &conflict) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": conflict.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/orders/:id.
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetOrder handles GET /api/orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetOrders handles GET /api/orders.
func (h *Handler) GetOrders(c *gin.Context) {
	list, err := h.orders.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrdersByEquipment handles GET /api/orders/equipment/:equipment_id.
func (h *Handler) GetOrdersByEquipment(c *gin.Context) {
	equipmentID, err := strconv.Atoi(c.Param("equipment_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return
	}

	list, err := h.orders.ByEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetScheduledOrders handles GET /api/orders/scheduled.
func (h *Handler) GetScheduledOrders(c *gin.Context) {
	list, err := h.orders.Scheduled(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scheduled orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetScheduledOrdersByEquipment handles GET /api/orders/scheduled/equipment/:equipment_id.
func (h *Handler) GetScheduledOrdersByEquipment(c *gin.Context) {
	equipmentID, err := strconv.Atoi(c.Param("equipment_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return
	}

	list, err := h.orders.ScheduledByEquipment(c.Request.Context(), equipmentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve scheduled orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetOrdersByStatus handles GET /api/orders/status/:status.
func (h *Handler) GetOrdersByStatus(c *gin.Context) {
	status, err := strconv.Atoi(c.Param("status"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
		return
	}

	list, err := h.orders.ByStatus(c.Request.Context(), model.OrderStatus(status))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}
