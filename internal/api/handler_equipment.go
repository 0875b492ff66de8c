package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-tracker-backend/internal/model"
	"equipment-tracker-backend/internal/store"
)

// GetEquipmentList handles GET /api/equipment.
func (h *Handler) GetEquipmentList(c *gin.Context) {
	list, err := h.pipeline.ListEquipment(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve equipment"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetEquipment handles GET /api/equipment/:id.
func (h *Handler) GetEquipment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return
	}

	equipment, err := h.pipeline.Equipment(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Equipment not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve equipment"})
		return
	}
	c.JSON(http.StatusOK, equipment)
}

// A pointer distinguishes a missing state field from StateRed's zero value.
type changeStateRequest struct {
	State *model.EquipmentState `json:"state" binding:"required"`
}

// ChangeEquipmentState handles POST /api/equipment/:id/state.
func (h *Handler) ChangeEquipmentState(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return
	}

	var req changeStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.State.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment state"})
		return
	}

	change, err := h.pipeline.ChangeState(c.Request.Context(), id, *req.State, testActor)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Equipment not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to change equipment state"})
		return
	}
	c.JSON(http.StatusOK, change)
}

// GetHistory handles GET /api/equipment/history.
func (h *Handler) GetHistory(c *gin.Context) {
	history, err := h.pipeline.History(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetEquipmentHistory handles GET /api/equipment/:id/history.
func (h *Handler) GetEquipmentHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return
	}

	history, err := h.pipeline.EquipmentHistory(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetLatestStatus handles GET /api/equipment/:id/status.
func (h *Handler) GetLatestStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid equipment ID"})
		return
	}

	latest, err := h.pipeline.LatestStatus(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No state changes recorded"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status"})
		return
	}
	c.JSON(http.StatusOK, latest)
}
