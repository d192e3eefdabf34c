package domain

import (
	"fmt"
	"time"
)

// Role enumerates the closed set of account roles.
type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleEmployee
	RoleRequester
)

var roleNames = map[Role]string{
	RoleAdmin:     "Administrador",
	RoleEmployee:  "Empleado",
	RoleRequester: "Usuario",
}

// Roles lists every valid role in display order.
var Roles = []Role{RoleAdmin, RoleEmployee, RoleRequester}

// ParseRole resolves the wire form of a role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if matchLiteral(s, roleNames[r]) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is an account able to sign in.
type User struct {
	ID           int64
	Name         string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is the display projection of a user joined onto a ticket.
type UserRef struct {
	Name     string
	Username string
}
