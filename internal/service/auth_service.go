package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/repository"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

// AuthService exchanges credentials for session tokens.
type AuthService struct {
	users    repository.UserRepository
	hasher   *auth.PasswordHasher
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokenMgr: tokens,
		logger:   nopIfNil(logger),
	}
}

// Login verifies the handle and secret. Unknown handles and wrong secrets
// produce the same InvalidCredentials error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, storageFailure(s.logger, "users.get_by_username", err)
	}
	if !s.hasher.Matches(user.PasswordHash, password) {
		s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "wrong password"))
		return nil, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
