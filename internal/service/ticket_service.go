package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/events"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// CreateTicketInput carries the raw fields of a new ticket.
type CreateTicketInput struct {
	Description string
	Priority    string
	CreatorID   int64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     nopIfNil(deps.Logger),
		now:        clock,
	}
}

// Create files a Pending ticket. The description must be non-empty after
// trimming and the priority must parse.
func (s *TicketService) Create(ctx context.Context, in CreateTicketInput) (*domain.Ticket, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("descripcion is required", nil)
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, apperrors.NewValidationError("prioridad must be one of Baja, Media, Alta, Crítica",
			map[string]any{"prioridad": in.Priority})
	}
	if in.CreatorID <= 0 {
		return nil, apperrors.NewValidationError("idUsuario is required", nil)
	}
	if _, err := s.users.GetByID(ctx, in.CreatorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("idUsuario does not reference a user",
				map[string]any{"idUsuario": in.CreatorID})
		}
		return nil, storageFailure(s.logger, "users.get", err)
	}

	ticket := &domain.Ticket{
		Description: description,
		Priority:    priority,
		Status:      domain.StatusPending,
		CreatedAt:   s.now(),
		CreatorID:   in.CreatorID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, storageFailure(s.logger, "tickets.create", err)
	}

	created, err := s.Get(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventTicketCreated, created.ID, events.TicketCreatedPayload{
		CreatorID: created.CreatorID,
		Priority:  created.Priority,
	})
	return created, nil
}

// Get returns a ticket with its joined creator and assignee.
func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, storageFailure(s.logger, "tickets.get", err)
	}
	return ticket, nil
}

// List returns tickets matching filter, newest first.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, storageFailure(s.logger, "tickets.list", err)
	}
	return tickets, nil
}

// TicketChange describes a combined edit. Assign marks AssigneeID as
// present, so a nil AssigneeID with Assign set clears the assignee.
type TicketChange struct {
	Assign     bool
	AssigneeID *int64
	Status     *string
}

// AssignEmployee sets or clears (nil employeeID) the assignee of an open
// ticket. The target must hold the Employee role.
func (s *TicketService) AssignEmployee(ctx context.Context, ticketID int64, employeeID *int64) (*domain.Ticket, error) {
	return s.Update(ctx, ticketID, TicketChange{Assign: true, AssigneeID: employeeID})
}

// UpdateStatus moves a ticket through the lifecycle. Entering Resolved or
// Rejected stamps the closure time; repeating the current open status is a
// no-op.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID int64, rawStatus string) (*domain.Ticket, error) {
	return s.Update(ctx, ticketID, TicketChange{Status: &rawStatus})
}

// Update validates the whole change before writing it in one statement, so
// a rejected request leaves the ticket untouched.
func (s *TicketService) Update(ctx context.Context, ticketID int64, change TicketChange) (*domain.Ticket, error) {
	var next *domain.Status
	if change.Status != nil {
		parsed, err := domain.ParseStatus(*change.Status)
		if err != nil {
			return nil, apperrors.NewValidationError("estado must be one of Pendiente, En_Proceso, Resuelto, Rechazado",
				map[string]any{"estado": *change.Status})
		}
		next = &parsed
	}

	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	current := ticket.Status
	if next != nil && !current.CanTransitionTo(*next) {
		return nil, apperrors.NewInvalidTransition(current.String(), next.String())
	}
	if change.Assign && current.IsTerminal() {
		return nil, apperrors.NewTicketClosed(current.String())
	}
	if change.Assign && change.AssigneeID != nil {
		if err := s.ensureEmployee(ctx, *change.AssigneeID); err != nil {
			return nil, err
		}
	}

	update := repository.TicketUpdate{SetAssignee: change.Assign, AssigneeID: change.AssigneeID}
	statusChanged := next != nil && *next != current
	if statusChanged {
		update.Status = next
		if next.IsTerminal() {
			now := s.now()
			update.ClosedAt = &now
		}
	}
	if !update.SetAssignee && update.Status == nil {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticketID, update); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.closedOrMissing(ctx, ticketID)
		}
		return nil, storageFailure(s.logger, "tickets.update", err)
	}

	updated, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if change.Assign {
		s.publishEvent(ctx, events.EventTicketAssigned, ticketID, events.TicketAssignedPayload{
			OldAssigneeID: ticket.AssigneeID,
			AssigneeID:    updated.AssigneeID,
		})
	}
	if statusChanged {
		s.publishEvent(ctx, events.EventTicketStatusChanged, ticketID, events.TicketStatusChangedPayload{
			OldStatus: current,
			NewStatus: updated.Status,
			ClosedAt:  updated.ClosedAt,
		})
	}
	return updated, nil
}

func (s *TicketService) ensureEmployee(ctx context.Context, id int64) error {
	employee, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("idEmpleado does not reference a user",
				map[string]any{"idEmpleado": id})
		}
		return storageFailure(s.logger, "users.get", err)
	}
	if employee.Role != domain.RoleEmployee {
		return apperrors.NewValidationError("idEmpleado must reference an Empleado",
			map[string]any{"idEmpleado": id, "rol": employee.Role.String()})
	}
	return nil
}

// closedOrMissing explains a conditional update that matched no row: the
// ticket was closed or deleted after it was read.
func (s *TicketService) closedOrMissing(ctx context.Context, ticketID int64) error {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return err
	}
	return apperrors.NewTicketClosed(ticket.Status.String())
}

func (s *TicketService) publishEvent(ctx context.Context, eventType events.EventType, ticketID int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: s.now(),
		Payload:   payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}
