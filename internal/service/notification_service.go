package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/events"
)

// NotificationService records ticket lifecycle events in the service log.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	return &NotificationService{logger: nopIfNil(logger)}
}

// Handle logs one event. It satisfies events.EventHandler.
func (n *NotificationService) Handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.Int64("ticket_id", event.TicketID),
	}
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		n.logger.Info("TicketCreated", append(fields,
			zap.Int64("creator_id", payload.CreatorID),
			zap.String("priority", payload.Priority.String()))...)
	case events.TicketAssignedPayload:
		n.logger.Info("TicketAssigned", append(fields,
			zap.Int64p("old_assignee_id", payload.OldAssigneeID),
			zap.Int64p("assignee_id", payload.AssigneeID))...)
	case events.TicketStatusChangedPayload:
		n.logger.Info("TicketStatusChanged", append(fields,
			zap.String("old_status", payload.OldStatus.String()),
			zap.String("new_status", payload.NewStatus.String()))...)
	default:
		n.logger.Debug("unhandled event", append(fields, zap.String("event_type", string(event.Type)))...)
	}
	return nil
}
