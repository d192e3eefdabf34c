package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/api/dto"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/service"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

// TicketsHandler manages ticket API endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets?userId=&employeeId=. Non-admin callers are
// scoped to their own tickets regardless of the query.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	creatorID, err := optionalID(c.Query("userId"), "userId")
	if err != nil {
		return err
	}
	assigneeID, err := optionalID(c.Query("employeeId"), "employeeId")
	if err != nil {
		return err
	}

	filter := auth.ScopeTicketFilter(p, repository.TicketFilter{CreatorID: creatorID, AssigneeID: assigneeID})
	tickets, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewTicketResponses(tickets))
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	creatorID, ok := auth.ResolveCreator(p, req.IDUsuario)
	if !ok {
		return apperrors.NewForbidden("tickets can only be filed for yourself")
	}

	ticket, err := h.service.Create(c.UserContext(), service.CreateTicketInput{
		Description: req.Descripcion,
		Priority:    req.Prioridad,
		CreatorID:   creatorID,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, dto.NewTicketResponse(ticket))
}

// UpdateTicket PATCH /api/tickets. Assignment and status change are checked
// against the caller before either is applied.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ID <= 0 {
		return apperrors.NewValidationError("id is required", nil)
	}
	if !req.IDEmpleado.Set && req.Estado == nil {
		return apperrors.NewValidationError("idEmpleado or estado is required", nil)
	}

	ctx := c.UserContext()
	ticket, err := h.service.Get(ctx, req.ID)
	if err != nil {
		return err
	}
	if req.IDEmpleado.Set && !auth.CanActOnTicket(p, ticket, auth.ActionAssign) {
		return apperrors.NewForbidden("not allowed to assign this ticket")
	}
	if req.Estado != nil && !auth.CanActOnTicket(p, ticket, auth.ActionUpdateStatus) {
		return apperrors.NewForbidden("not allowed to change the status of this ticket")
	}

	ticket, err = h.service.Update(ctx, req.ID, service.TicketChange{
		Assign:     req.IDEmpleado.Set,
		AssigneeID: req.IDEmpleado.Value,
		Status:     req.Estado,
	})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewTicketResponse(ticket))
}
