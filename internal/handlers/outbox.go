package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calendar-booking-server/internal/store"
	"calendar-booking-server/internal/utils"
)

// OutboxHandler lets the owner inspect undelivered notifications.
type OutboxHandler struct {
	Store       store.Repository
	MaxAttempts int
	Logger      *zap.Logger
}

// NewOutboxHandler creates a new OutboxHandler.
func NewOutboxHandler(repo store.Repository, maxAttempts int, logger *zap.Logger) *OutboxHandler {
	return &OutboxHandler{Store: repo, MaxAttempts: maxAttempts, Logger: logger}
}

// GetPending lists outbox events that have not been dispatched yet.
func (h *OutboxHandler) GetPending(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		utils.BadRequest(c, "limit must be between 1 and 500")
		return
	}

	events, err := h.Store.PendingEvents(c.Request.Context(), limit, h.MaxAttempts)
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Success(c, "Pending events retrieved successfully", events)
}
