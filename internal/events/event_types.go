package events

import (
	"time"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// EventTypes lists every type a sink may subscribe to.
var EventTypes = []EventType{EventTicketCreated, EventTicketAssigned, EventTicketStatusChanged}

// Event represents a ticket lifecycle change emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CreatorID int64           `json:"creator_id"`
	Priority  domain.Priority `json:"priority"`
}

// TicketAssignedPayload payload. A nil assignee means the ticket was unassigned.
type TicketAssignedPayload struct {
	OldAssigneeID *int64 `json:"old_assignee_id"`
	AssigneeID    *int64 `json:"assignee_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
	ClosedAt  *time.Time    `json:"closed_at,omitempty"`
}
