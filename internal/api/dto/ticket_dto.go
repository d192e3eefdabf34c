package dto

import (
	"time"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/sla"
)

// CreateTicketRequest payload. IDUsuario defaults to the caller.
type CreateTicketRequest struct {
	Descripcion string `json:"descripcion"`
	Prioridad   string `json:"prioridad"`
	IDUsuario   *int64 `json:"idUsuario"`
}

// UpdateTicketRequest payload. Either field may be omitted but not both;
// an explicit null idEmpleado unassigns the ticket.
type UpdateTicketRequest struct {
	ID         int64         `json:"id"`
	IDEmpleado OptionalInt64 `json:"idEmpleado"`
	Estado     *string       `json:"estado"`
}

// UserRefResponse is the joined display name of a ticket participant.
type UserRefResponse struct {
	Nombre  string `json:"nombre"`
	Usuario string `json:"usuario"`
}

// SLAResponse is the advisory countdown for open high-priority tickets.
type SLAResponse struct {
	Vencido bool   `json:"vencido"`
	Horas   int    `json:"horas"`
	Minutos int    `json:"minutos"`
	Texto   string `json:"texto"`
}

// TicketResponse is the wire form of a ticket with its joins.
type TicketResponse struct {
	ID            int64            `json:"id"`
	Descripcion   string           `json:"descripcion"`
	Prioridad     domain.Priority  `json:"prioridad"`
	Estado        domain.Status    `json:"estado"`
	FechaCreacion time.Time        `json:"fechaCreacion"`
	FechaCierre   *time.Time       `json:"fechaCierre"`
	IDUsuario     int64            `json:"idUsuario"`
	IDEmpleado    *int64           `json:"idEmpleado"`
	Creador       *UserRefResponse `json:"creador"`
	Empleado      *UserRefResponse `json:"empleado"`
	SLA           *SLAResponse     `json:"sla,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		Descripcion:   t.Description,
		Prioridad:     t.Priority,
		Estado:        t.Status,
		FechaCreacion: t.CreatedAt,
		FechaCierre:   t.ClosedAt,
		IDUsuario:     t.CreatorID,
		IDEmpleado:    t.AssigneeID,
		Creador:       newUserRef(t.Creator),
		Empleado:      newUserRef(t.Assignee),
	}
}

// NewTicketResponses maps a listing.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// WithSLA attaches the countdown when it applies to the ticket.
func WithSLA(resp TicketResponse, t *domain.Ticket, now time.Time) TicketResponse {
	if !sla.Applies(t) {
		return resp
	}
	result := sla.Remaining(t.CreatedAt, t.Priority, now)
	resp.SLA = &SLAResponse{
		Vencido: result.Breached,
		Horas:   result.Hours,
		Minutos: result.Minutes,
		Texto:   result.String(),
	}
	return resp
}

func newUserRef(ref *domain.UserRef) *UserRefResponse {
	if ref == nil {
		return nil
	}
	return &UserRefResponse{Nombre: ref.Name, Usuario: ref.Username}
}
