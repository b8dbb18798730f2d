package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/marketapi/internal/mailer"
)

// Effect is a side effect requested by a coordinator operation. Coordinators
// only decide which effects should fire; the Dispatcher executes them with
// independent failure isolation after the state mutation has been persisted.
type Effect interface {
	effect()
}

// SendEmail is a best-effort outbound email
type SendEmail struct {
	To      string
	Subject string
	HTML    string
}

func (SendEmail) effect() {}

// Notify records one durable notification per recipient and pushes a live
// update to each
type Notify struct {
	Recipients []uuid.UUID
	Payload    NotificationPayload
}

func (Notify) effect() {}

// NotifyAdmins fans out to the current admin set
type NotifyAdmins struct {
	Payload NotificationPayload
}

func (NotifyAdmins) effect() {}

// Dispatcher executes effects. Failures are logged and swallowed; a failed
// side effect never converts a persisted state mutation into an error.
type Dispatcher struct {
	notifications *NotificationService
	mail          *mailer.Client
	logger        *zap.Logger
}

// NewDispatcher creates a new effect dispatcher
func NewDispatcher(notifications *NotificationService, mail *mailer.Client, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		mail:          mail,
		logger:        logger,
	}
}

// Dispatch runs each effect in order, isolating failures
func (d *Dispatcher) Dispatch(ctx context.Context, effects []Effect) {
	for _, e := range effects {
		switch eff := e.(type) {
		case SendEmail:
			if eff.To == "" || eff.Subject == "" {
				continue
			}
			if _, err := d.mail.Send(ctx, eff.To, eff.Subject, eff.HTML); err != nil {
				d.logger.Warn("Best-effort email failed",
					zap.String("to", eff.To),
					zap.String("subject", eff.Subject),
					zap.Error(err),
				)
			}
		case Notify:
			if _, err := d.notifications.NotifyUsers(ctx, eff.Recipients, eff.Payload); err != nil {
				d.logger.Warn("Notification fan-out failed",
					zap.String("type", eff.Payload.Type),
					zap.Error(err),
				)
			}
		case NotifyAdmins:
			if err := d.notifications.NotifyAdmins(ctx, eff.Payload); err != nil {
				d.logger.Warn("Admin notification fan-out failed",
					zap.String("type", eff.Payload.Type),
					zap.Error(err),
				)
			}
		}
	}
}
