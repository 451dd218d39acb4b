package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calendar-booking-server/internal/notify"
	"calendar-booking-server/internal/services"
	"calendar-booking-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Service   *services.BookingService
	Logger    *zap.Logger
	Organizer string
}

// NewAppointmentHandler creates a new AppointmentHandler. Organizer is the
// address written into exported calendar invites.
func NewAppointmentHandler(svc *services.BookingService, logger *zap.Logger, organizer string) *AppointmentHandler {
	return &AppointmentHandler{Service: svc, Logger: logger, Organizer: organizer}
}

// CreateAppointmentRequest represents the request body for booking a slot.
type CreateAppointmentRequest struct {
	Date        string `json:"date" binding:"required"`
	TimeSlotID  string `json:"timeSlotId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	MeetingType string `json:"meetingType" binding:"required"`
	Topic       string `json:"topic"`
}

// CreateAppointment books a slot for an anonymous visitor.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.BookAppointment(c.Request.Context(), services.BookingRequest{
		Date:        req.Date,
		TimeSlotID:  req.TimeSlotID,
		Name:        req.Name,
		Email:       req.Email,
		MeetingType: req.MeetingType,
		Topic:       req.Topic,
	})
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Created(c, "Appointment booked successfully", appt)
}

// GetAppointments lists all appointments. Admin only.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	appts, err := h.Service.ListAppointments(c.Request.Context())
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Success(c, "Appointments retrieved successfully", appts)
}

// GetAppointmentByID returns one appointment. Admin only.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appt, err := h.Service.GetAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	utils.Success(c, "Appointment retrieved successfully", appt)
}

// GetAppointmentICS exports an appointment as an iCalendar invite.
func (h *AppointmentHandler) GetAppointmentICS(c *gin.Context) {
	ctx := c.Request.Context()
	appt, err := h.Service.GetAppointment(ctx, c.Param("id"))
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	slot, err := h.Service.GetSlot(ctx, appt.TimeSlotID)
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	mt, ok := services.FindMeetingType(appt.MeetingType)
	if !ok {
		// meeting type dropped from the catalog after booking
		mt.ID, mt.Name, mt.Duration = appt.MeetingType, appt.MeetingType, 30
	}

	body, err := notify.AppointmentICS(*appt, *slot, mt, h.Organizer, h.Service.Location())
	if err != nil {
		utils.RespondError(c, h.Logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="appointment-`+appt.ID+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}
