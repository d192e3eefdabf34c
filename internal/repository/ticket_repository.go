package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
)

// TicketFilter narrows ticket listings. A nil field applies no restriction.
type TicketFilter struct {
	CreatorID  *int64
	AssigneeID *int64
}

// TicketUpdate lists the columns to change in a single statement. A nil
// ClosedAt leaves closed_at as is.
type TicketUpdate struct {
	SetAssignee bool
	AssigneeID  *int64
	Status      *domain.Status
	ClosedAt    *time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Update(ctx context.Context, id int64, update TicketUpdate) error
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketSelect = `
        SELECT t.id, t.description, t.priority, t.status, t.created_at, t.closed_at,
               t.creator_id, t.assignee_id,
               c.name, c.username, e.name, e.username
        FROM tickets t
        LEFT JOIN users c ON c.id = t.creator_id
        LEFT JOIN users e ON e.id = t.assignee_id`

// Updates never touch rows that already reached a terminal status.
var openTicketClause = fmt.Sprintf("status NOT IN ('%s')", strings.Join(domain.TerminalStatusLiterals(), "','"))

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (description, priority, status, created_at, closed_at, creator_id, assignee_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		ticket.Description,
		ticket.Priority.String(),
		ticket.Status.String(),
		ticket.CreatedAt,
		ticket.ClosedAt,
		ticket.CreatorID,
		ticket.AssigneeID,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("t.creator_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assignee_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id DESC`,
		ticketSelect, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// Update applies every field of update in one statement. Terminal rows
// are never touched and report pgx.ErrNoRows.
func (r *ticketRepository) Update(ctx context.Context, id int64, update TicketUpdate) error {
	sets := []string{}
	args := []any{}

	if update.SetAssignee {
		args = append(args, update.AssigneeID)
		sets = append(sets, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, update.Status.String())
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
		args = append(args, update.ClosedAt)
		sets = append(sets, fmt.Sprintf("closed_at=COALESCE($%d::timestamptz, closed_at)", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d AND %s",
		strings.Join(sets, ", "), len(args), openTicketClause)
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE creator_id=$1 OR assignee_id=$1`
	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket                       domain.Ticket
		priority, status             string
		creatorName, creatorHandle   *string
		assigneeName, assigneeHandle *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Description,
		&priority,
		&status,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
		&ticket.CreatorID,
		&ticket.AssigneeID,
		&creatorName,
		&creatorHandle,
		&assigneeName,
		&assigneeHandle,
	); err != nil {
		return nil, err
	}

	var err error
	if ticket.Priority, err = domain.ParsePriority(priority); err != nil {
		return nil, fmt.Errorf("ticket %d: %w", ticket.ID, err)
	}
	if ticket.Status, err = domain.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("ticket %d: %w", ticket.ID, err)
	}
	ticket.Creator = userRef(creatorName, creatorHandle)
	if ticket.AssigneeID != nil {
		ticket.Assignee = userRef(assigneeName, assigneeHandle)
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func userRef(name, username *string) *domain.UserRef {
	if name == nil || username == nil {
		return nil
	}
	return &domain.UserRef{Name: *name, Username: *username}
}
