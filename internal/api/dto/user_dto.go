package dto

import (
	"time"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
)

// LoginRequest payload for the credential exchange.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserRequest payload for creating and updating accounts. Clave is optional
// on update.
type UserRequest struct {
	Nombre  string `json:"nombre"`
	Usuario string `json:"usuario"`
	Clave   string `json:"clave"`
	Rol     string `json:"rol"`
}

// UserResponse never carries the secret hash.
type UserResponse struct {
	ID      int64       `json:"id"`
	Nombre  string      `json:"nombre"`
	Usuario string      `json:"usuario"`
	Rol     domain.Role `json:"rol"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Nombre: u.Name, Usuario: u.Username, Rol: u.Role}
}

// NewUserResponses maps a listing.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
