package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/api/dto"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/service"
)

var homeByRole = map[domain.Role]string{
	domain.RoleAdmin:     "/admin/tickets",
	domain.RoleEmployee:  "/employee/tickets",
	domain.RoleRequester: "/requester/tickets",
}

// ViewsHandler renders the role dashboards as JSON view models.
type ViewsHandler struct {
	tickets *service.TicketService
	users   *service.UserService
	now     func() time.Time
}

// NewViewsHandler constructs handler. A nil clock uses time.Now.
func NewViewsHandler(tickets *service.TicketService, users *service.UserService, clock func() time.Time) *ViewsHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ViewsHandler{tickets: tickets, users: users, now: clock}
}

type viewer struct {
	ID     int64       `json:"id"`
	Nombre string      `json:"nombre"`
	Rol    domain.Role `json:"rol"`
}

// Root GET / sends callers to the dashboard of their role.
func (h *ViewsHandler) Root(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return c.Redirect("/login", fiber.StatusFound)
	}
	target, ok := homeByRole[p.Role]
	if !ok {
		return c.Redirect("/login", fiber.StatusFound)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// Login GET /login describes the sign-in form. Signed-in callers go home.
func (h *ViewsHandler) Login(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); ok {
		return c.Redirect("/", fiber.StatusFound)
	}
	return data(c, fiber.StatusOK, fiber.Map{
		"view":   "login",
		"action": "/api/auth",
		"fields": []string{"username", "password"},
	})
}

// AdminTickets GET /admin/tickets lists every ticket plus the employees
// available for assignment.
func (h *ViewsHandler) AdminTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	tickets, err := h.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return err
	}
	employees, err := h.users.ListByRole(ctx, domain.RoleEmployee)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, fiber.Map{
		"view":      "admin/tickets",
		"viewer":    viewerOf(p),
		"tickets":   h.withSLA(tickets),
		"empleados": dto.NewUserResponses(employees),
		"estados":   statusOptions(),
	})
}

// AdminUsers GET /admin/usuarios.
func (h *ViewsHandler) AdminUsers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	roles := make([]string, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		roles = append(roles, r.String())
	}
	return data(c, fiber.StatusOK, fiber.Map{
		"view":     "admin/usuarios",
		"viewer":   viewerOf(p),
		"usuarios": dto.NewUserResponses(users),
		"roles":    roles,
	})
}

// EmployeeTickets GET /employee/tickets lists tickets assigned to the caller.
func (h *ViewsHandler) EmployeeTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	self := p.UserID
	tickets, err := h.tickets.List(c.UserContext(), repository.TicketFilter{AssigneeID: &self})
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, fiber.Map{
		"view":    "employee/tickets",
		"viewer":  viewerOf(p),
		"tickets": dto.NewTicketResponses(tickets),
		"estados": statusOptions(),
	})
}

// RequesterTickets GET /requester/tickets lists tickets the caller filed.
func (h *ViewsHandler) RequesterTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	self := p.UserID
	tickets, err := h.tickets.List(c.UserContext(), repository.TicketFilter{CreatorID: &self})
	if err != nil {
		return err
	}
	priorities := make([]string, 0, len(domain.Priorities))
	for _, pr := range domain.Priorities {
		priorities = append(priorities, pr.String())
	}
	return data(c, fiber.StatusOK, fiber.Map{
		"view":        "requester/tickets",
		"viewer":      viewerOf(p),
		"tickets":     dto.NewTicketResponses(tickets),
		"prioridades": priorities,
	})
}

func (h *ViewsHandler) withSLA(tickets []domain.Ticket) []dto.TicketResponse {
	now := h.now()
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, dto.WithSLA(dto.NewTicketResponse(&tickets[i]), &tickets[i], now))
	}
	return out
}

func viewerOf(p *auth.Principal) viewer {
	return viewer{ID: p.UserID, Nombre: p.Name, Rol: p.Role}
}

func statusOptions() []string {
	out := make([]string, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out = append(out, s.String())
	}
	return out
}
