package service

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/events"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
)

// mockUserRepository is an in-memory UserRepository with injectable errors.
type mockUserRepository struct {
	users  map[int64]*domain.User
	nextID int64

	createErr error
	updateErr error
	getErr    error
	listErr   error
	deleteErr error
}

func newMockUserRepository(users ...domain.User) *mockUserRepository {
	m := &mockUserRepository{users: map[int64]*domain.User{}, nextID: 100}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *mockUserRepository) Create(_ context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) Update(_ context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepository) List(_ context.Context) ([]domain.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepository) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

// mockTicketRepository is an in-memory TicketRepository that resolves joins
// against a mockUserRepository.
type mockTicketRepository struct {
	tickets map[int64]*domain.Ticket
	users   *mockUserRepository
	nextID  int64

	createErr error
	getErr    error
	listErr   error
	updateErr error
	countErr  error
	// closeBeforeUpdate simulates a concurrent closure between read and write.
	closeBeforeUpdate bool
	updates           int
}

func newMockTicketRepository(users *mockUserRepository, tickets ...domain.Ticket) *mockTicketRepository {
	m := &mockTicketRepository{tickets: map[int64]*domain.Ticket{}, users: users}
	for i := range tickets {
		t := tickets[i]
		m.tickets[t.ID] = &t
		if t.ID > m.nextID {
			m.nextID = t.ID
		}
	}
	return m
}

func (m *mockTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	ticket.ID = m.nextID
	stored := *ticket
	m.tickets[ticket.ID] = &stored
	return nil
}

func (m *mockTicketRepository) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m.joined(*t), nil
}

func (m *mockTicketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domain.Ticket{}
	for _, t := range m.tickets {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		out = append(out, *m.joined(*t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockTicketRepository) Update(_ context.Context, id int64, update repository.TicketUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	t, ok := m.openTicket(id)
	if !ok {
		return pgx.ErrNoRows
	}
	m.updates++
	if update.SetAssignee {
		t.AssigneeID = update.AssigneeID
	}
	if update.Status != nil {
		t.Status = *update.Status
		if update.ClosedAt != nil {
			t.ClosedAt = update.ClosedAt
		}
	}
	return nil
}

func (m *mockTicketRepository) CountByUser(_ context.Context, userID int64) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	var count int64
	for _, t := range m.tickets {
		if t.CreatorID == userID || (t.AssigneeID != nil && *t.AssigneeID == userID) {
			count++
		}
	}
	return count, nil
}

func (m *mockTicketRepository) openTicket(id int64) (*domain.Ticket, bool) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, false
	}
	if m.closeBeforeUpdate {
		closed := time.Now()
		t.Status = domain.StatusRejected
		t.ClosedAt = &closed
	}
	if t.Status.IsTerminal() {
		return nil, false
	}
	return t, true
}

func (m *mockTicketRepository) joined(t domain.Ticket) *domain.Ticket {
	if u, ok := m.users.users[t.CreatorID]; ok {
		t.Creator = &domain.UserRef{Name: u.Name, Username: u.Username}
	}
	if t.AssigneeID != nil {
		if u, ok := m.users.users[*t.AssigneeID]; ok {
			t.Assignee = &domain.UserRef{Name: u.Name, Username: u.Username}
		}
	}
	return &t
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	published []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func int64Ptr(v int64) *int64 { return &v }
