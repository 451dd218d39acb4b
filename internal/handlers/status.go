package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calendar-booking-server/internal/models"
	"calendar-booking-server/internal/services"
	"calendar-booking-server/internal/utils"
)

// StatusHandler exposes the owner's reachability indicator.
type StatusHandler struct {
	Service *services.BookingService
	Logger  *zap.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(svc *services.BookingService, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{Service: svc, Logger: logger}
}

// UpdateStatusRequest represents the request body for changing the status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// StatusResponse is returned by both status endpoints.
type StatusResponse struct {
	Status models.Status `json:"status"`
}

// GetStatus returns the current status.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	status, err := h.Service.GetStatus(c.Request.Context())
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Success(c, "Status retrieved successfully", StatusResponse{Status: status})
}

// UpdateStatus sets the status. Admin only.
func (h *StatusHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	status := models.Status(req.Status)
	if err := h.Service.SetStatus(c.Request.Context(), status); err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Success(c, "Status updated successfully", StatusResponse{Status: status})
}
