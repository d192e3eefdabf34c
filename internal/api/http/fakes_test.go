package http

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
)

// store is an in-memory backing for both repositories.
type store struct {
	mu      sync.Mutex
	users   map[int64]domain.User
	tickets map[int64]domain.Ticket
	nextID  int64
}

func newStore() *store {
	return &store{users: map[int64]domain.User{}, tickets: map[int64]domain.Ticket{}, nextID: 100}
}

type fakeUsers struct{ s *store }

func (f fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	f.s.nextID++
	u.ID = f.s.nextID
	f.s.users[u.ID] = *u
	return nil
}

func (f fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.s.users[u.ID] = *u
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Username == username {
			copied := u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeUsers) List(_ context.Context) ([]domain.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]domain.User, 0, len(f.s.users))
	for _, u := range f.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeUsers) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.s.users, id)
	return nil
}

type fakeTickets struct{ s *store }

func (f fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.nextID++
	t.ID = f.s.nextID
	f.s.tickets[t.ID] = *t
	return nil
}

func (f fakeTickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return f.join(t), nil
}

func (f fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range f.s.tickets {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		out = append(out, *f.join(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeTickets) Update(_ context.Context, id int64, update repository.TicketUpdate) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tickets[id]
	if !ok || t.Status.IsTerminal() {
		return pgx.ErrNoRows
	}
	if update.SetAssignee {
		t.AssigneeID = update.AssigneeID
	}
	if update.Status != nil {
		t.Status = *update.Status
		if update.ClosedAt != nil {
			t.ClosedAt = update.ClosedAt
		}
	}
	f.s.tickets[id] = t
	return nil
}

func (f fakeTickets) CountByUser(_ context.Context, userID int64) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, t := range f.s.tickets {
		if t.CreatorID == userID || (t.AssigneeID != nil && *t.AssigneeID == userID) {
			n++
		}
	}
	return n, nil
}

func (f fakeTickets) join(t domain.Ticket) *domain.Ticket {
	if u, ok := f.s.users[t.CreatorID]; ok {
		t.Creator = &domain.UserRef{Name: u.Name, Username: u.Username}
	}
	if t.AssigneeID != nil {
		if u, ok := f.s.users[*t.AssigneeID]; ok {
			t.Assignee = &domain.UserRef{Name: u.Name, Username: u.Username}
		}
	}
	return &t
}
