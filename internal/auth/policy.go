package auth

import (
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
)

// Resource names a guarded area of the application.
type Resource string

const (
	ResourceTicket         Resource = "ticket"
	ResourceUser           Resource = "user"
	ResourceAdminViews     Resource = "admin"
	ResourceEmployeeViews  Resource = "employee"
	ResourceRequesterViews Resource = "requester"
)

// Action names an operation on a resource.
type Action string

const (
	ActionView         Action = "view"
	ActionList         Action = "list"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionAssign       Action = "assign"
	ActionUpdateStatus Action = "update_status"
)

type grants map[Resource]map[Action]struct{}

func allow(actions ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

var policy = map[domain.Role]grants{
	domain.RoleAdmin: {
		ResourceTicket:     allow(ActionList, ActionCreate, ActionAssign, ActionUpdateStatus),
		ResourceUser:       allow(ActionList, ActionCreate, ActionUpdate, ActionDelete),
		ResourceAdminViews: allow(ActionView),
	},
	domain.RoleEmployee: {
		ResourceTicket:        allow(ActionList, ActionUpdateStatus),
		ResourceEmployeeViews: allow(ActionView),
	},
	domain.RoleRequester: {
		ResourceTicket:         allow(ActionList, ActionCreate),
		ResourceRequesterViews: allow(ActionView),
	},
}

// CanAccess is the single role policy consulted by route guards and
// mutation handlers.
func CanAccess(role domain.Role, resource Resource, action Action) bool {
	actions, ok := policy[role][resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// CanActOnTicket applies record-level rules on top of CanAccess. Employees may
// only act on tickets assigned to them, requesters only on their own.
func CanActOnTicket(p *Principal, ticket *domain.Ticket, action Action) bool {
	if p == nil || ticket == nil || !CanAccess(p.Role, ResourceTicket, action) {
		return false
	}
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleEmployee:
		return ticket.AssigneeID != nil && *ticket.AssigneeID == p.UserID
	case domain.RoleRequester:
		return ticket.CreatorID == p.UserID
	}
	return false
}

// ScopeTicketFilter restricts a listing to the records the caller may see.
func ScopeTicketFilter(p *Principal, filter repository.TicketFilter) repository.TicketFilter {
	self := p.UserID
	switch p.Role {
	case domain.RoleEmployee:
		return repository.TicketFilter{AssigneeID: &self}
	case domain.RoleRequester:
		return repository.TicketFilter{CreatorID: &self}
	}
	return filter
}

// ResolveCreator picks the creator of a new ticket. Only admins may file on
// behalf of someone else; an omitted id means the caller.
func ResolveCreator(p *Principal, requested *int64) (int64, bool) {
	if requested == nil {
		return p.UserID, true
	}
	if p.Role == domain.RoleAdmin || *requested == p.UserID {
		return *requested, true
	}
	return 0, false
}
