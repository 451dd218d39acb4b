package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calendar-booking-server/internal/services"
	"calendar-booking-server/internal/utils"
)

// CalendarHandler serves the read side of the booking calendar.
type CalendarHandler struct {
	Service *services.BookingService
	Logger  *zap.Logger
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(svc *services.BookingService, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{Service: svc, Logger: logger}
}

// GetAvailableDays lists the dates that still have a bookable slot.
func (h *CalendarHandler) GetAvailableDays(c *gin.Context) {
	days, err := h.Service.ListAvailableDays(c.Request.Context())
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Success(c, "Available days retrieved successfully", days)
}

// GetSlots lists every slot of the date given in the query string.
func (h *CalendarHandler) GetSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.BadRequest(c, "date query parameter is required")
		return
	}

	slots, err := h.Service.ListSlotsForDate(c.Request.Context(), date)
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Success(c, "Time slots retrieved successfully", slots)
}

// GetMeetingTypes lists the meeting catalog.
func (h *CalendarHandler) GetMeetingTypes(c *gin.Context) {
	utils.Success(c, "Meeting types retrieved successfully", h.Service.ListMeetingTypes())
}
