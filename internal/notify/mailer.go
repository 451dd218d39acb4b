package notify

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers booking notifications. Templating and transport belong
// to the implementation.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, b BookingCreated) error
}

// LogMailer records the messages it would have sent.
type LogMailer struct {
	From   string
	Owner  string
	Logger *zap.Logger
}

// SendBookingConfirmation logs the confirmation that would be mailed.
func (m LogMailer) SendBookingConfirmation(_ context.Context, b BookingCreated) error {
	m.Logger.Info("booking confirmation",
		zap.String("from", m.From),
		zap.String("to", b.Email),
		zap.String("appointmentId", b.AppointmentID),
		zap.String("date", b.Date),
		zap.String("time", b.Time),
	)
	if m.Owner != "" {
		m.Logger.Info("booking notice",
			zap.String("from", m.From),
			zap.String("to", m.Owner),
			zap.String("appointmentId", b.AppointmentID),
			zap.String("requester", b.Name),
			zap.String("meetingType", b.MeetingType),
		)
	}
	return nil
}
