package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calendar-booking-server/internal/services"
)

// RespondError maps a service error to the matching HTTP error response.
// Unexpected errors are logged and reported without internal detail.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Error())
	case errors.Is(err, services.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, services.ErrSlotUnavailable):
		BadRequest(c, "The selected time slot is no longer available")
	case errors.Is(err, services.ErrNotFound):
		NotFound(c, "Resource not found")
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		InternalServerError(c, "An unexpected error occurred")
	}
}
