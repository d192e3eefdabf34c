package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/config"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

// UserService manages accounts on behalf of administrators.
type UserService struct {
	users        repository.UserRepository
	tickets      repository.TicketRepository
	hasher       *auth.PasswordHasher
	deletePolicy string
	logger       *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	TicketRepo   repository.TicketRepository
	Hasher       *auth.PasswordHasher
	DeletePolicy string
	Logger       *zap.Logger
}

// CreateUserInput carries the raw fields of a new account.
type CreateUserInput struct {
	Name     string
	Username string
	Password string
	Role     string
}

// UpdateUserInput replaces name, handle and role. An empty Password keeps
// the stored secret.
type UpdateUserInput struct {
	Name     string
	Username string
	Password string
	Role     string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	policy := deps.DeletePolicy
	if policy == "" {
		policy = config.DeletePolicyOrphan
	}
	return &UserService{
		users:        deps.UserRepo,
		tickets:      deps.TicketRepo,
		hasher:       deps.Hasher,
		deletePolicy: policy,
		logger:       nopIfNil(deps.Logger),
	}
}

// List returns every account ordered by id.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storageFailure(s.logger, "users.list", err)
	}
	return users, nil
}

// ListByRole returns accounts holding the given role.
func (s *UserService) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Role == role {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// Create validates and stores a new account. An empty role defaults to
// Requester.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	username := strings.TrimSpace(in.Username)
	if name == "" || username == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("nombre, usuario and clave are required", nil)
	}
	role := domain.RoleRequester
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, invalidRole(in.Role)
		}
		role = parsed
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewValidationError("clave cannot be hashed", map[string]any{"reason": err.Error()})
	}

	user := &domain.User{Name: name, Username: username, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, duplicateUsername(username)
		}
		return nil, storageFailure(s.logger, "users.create", err)
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", role.String()))
	return user, nil
}

// Update replaces the account fields; the secret is re-hashed only when given.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	username := strings.TrimSpace(in.Username)
	if name == "" || username == "" {
		return nil, apperrors.NewValidationError("nombre and usuario are required", nil)
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, invalidRole(in.Role)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, storageFailure(s.logger, "users.get", err)
	}

	user.Name = name
	user.Username = username
	user.Role = role
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, apperrors.NewValidationError("clave cannot be hashed", map[string]any{"reason": err.Error()})
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, duplicateUsername(username)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, storageFailure(s.logger, "users.update", err)
	}
	return user, nil
}

// Delete removes an account following the configured policy: orphan leaves
// ticket references dangling, restrict refuses while any ticket points at
// the user.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if s.deletePolicy == config.DeletePolicyRestrict {
		count, err := s.tickets.CountByUser(ctx, id)
		if err != nil {
			return storageFailure(s.logger, "tickets.count_by_user", err)
		}
		if count > 0 {
			return apperrors.NewConflict("user is referenced by tickets", map[string]any{"id": id, "tickets": count})
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return storageFailure(s.logger, "users.delete", err)
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.String("policy", s.deletePolicy))
	return nil
}

// EnsureAdmin creates the bootstrap administrator unless the handle is
// already taken. An existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, name, username, password string) (*domain.User, bool, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, storageFailure(s.logger, "users.get_by_username", err)
	}

	user, err := s.Create(ctx, CreateUserInput{
		Name:     name,
		Username: username,
		Password: password,
		Role:     domain.RoleAdmin.String(),
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func invalidRole(raw string) error {
	return apperrors.NewValidationError("rol must be one of Administrador, Empleado, Usuario",
		map[string]any{"rol": raw})
}

func duplicateUsername(username string) error {
	return apperrors.NewConflict("usuario already exists", map[string]any{"usuario": username})
}
