package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/auth"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/config"
	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

func newUserServiceForTest(t *testing.T, policy string) (*UserService, *mockUserRepository, *mockTicketRepository) {
	t.Helper()
	users := seedUsers()
	tickets := newMockTicketRepository(users, domain.Ticket{
		ID: 9, Description: "x", Priority: domain.PriorityLow, Status: domain.StatusPending, CreatedAt: time.Now(), CreatorID: 7,
	})
	svc := NewUserService(UserDependencies{
		UserRepo:     users,
		TicketRepo:   tickets,
		Hasher:       auth.NewPasswordHasher(bcrypt.MinCost),
		DeletePolicy: policy,
		Logger:       zaptest.NewLogger(t),
	})
	return svc, users, tickets
}

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name        string
		input       CreateUserInput
		wantRole    domain.Role
		wantErrCode string
	}{
		{"employee", CreateUserInput{Name: "Eva", Username: "eva", Password: "pw", Role: "Empleado"}, domain.RoleEmployee, ""},
		{"role defaults to requester", CreateUserInput{Name: "Eva", Username: "eva", Password: "pw"}, domain.RoleRequester, ""},
		{"missing secret", CreateUserInput{Name: "Eva", Username: "eva", Role: "Usuario"}, 0, "VALIDATION_FAILED"},
		{"missing name", CreateUserInput{Username: "eva", Password: "pw"}, 0, "VALIDATION_FAILED"},
		{"unknown role", CreateUserInput{Name: "Eva", Username: "eva", Password: "pw", Role: "Root"}, 0, "VALIDATION_FAILED"},
		{"duplicate handle", CreateUserInput{Name: "Ana 2", Username: "ana", Password: "pw"}, 0, "CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newUserServiceForTest(t, "")
			user, err := svc.Create(context.Background(), tt.input)
			if tt.wantErrCode != "" {
				assert.True(t, apperrors.IsCode(err, tt.wantErrCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, user.Role)
			assert.NotEqual(t, tt.input.Password, user.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
		})
	}
}

func TestUserService_Update(t *testing.T) {
	t.Run("keeps secret when omitted", func(t *testing.T) {
		svc, users, _ := newUserServiceForTest(t, "")
		users.users[4].PasswordHash = "original"

		user, err := svc.Update(context.Background(), 4, UpdateUserInput{Name: "Luis M", Username: "luism", Role: "Administrador"})
		require.NoError(t, err)
		assert.Equal(t, "original", user.PasswordHash)
		assert.Equal(t, domain.RoleAdmin, users.users[4].Role)
		assert.Equal(t, "luism", users.users[4].Username)
	})

	t.Run("rehashes new secret", func(t *testing.T) {
		svc, users, _ := newUserServiceForTest(t, "")
		users.users[4].PasswordHash = "original"

		_, err := svc.Update(context.Background(), 4, UpdateUserInput{Name: "Luis", Username: "luis", Role: "Empleado", Password: "new"})
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.users[4].PasswordHash), []byte("new")))
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newUserServiceForTest(t, "")
		_, err := svc.Update(context.Background(), 55, UpdateUserInput{Name: "x", Username: "x", Role: "Usuario"})
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("invalid role", func(t *testing.T) {
		svc, _, _ := newUserServiceForTest(t, "")
		_, err := svc.Update(context.Background(), 4, UpdateUserInput{Name: "x", Username: "x", Role: ""})
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})
}

func TestUserService_Delete(t *testing.T) {
	t.Run("orphan leaves tickets dangling", func(t *testing.T) {
		svc, users, tickets := newUserServiceForTest(t, config.DeletePolicyOrphan)
		require.NoError(t, svc.Delete(context.Background(), 7))
		assert.NotContains(t, users.users, int64(7))

		ticket, err := tickets.GetByID(context.Background(), 9)
		require.NoError(t, err)
		assert.Equal(t, int64(7), ticket.CreatorID)
		assert.Nil(t, ticket.Creator)
	})

	t.Run("restrict refuses referenced user", func(t *testing.T) {
		svc, users, _ := newUserServiceForTest(t, config.DeletePolicyRestrict)
		err := svc.Delete(context.Background(), 7)
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
		assert.Contains(t, users.users, int64(7))
	})

	t.Run("restrict allows unreferenced user", func(t *testing.T) {
		svc, _, _ := newUserServiceForTest(t, config.DeletePolicyRestrict)
		assert.NoError(t, svc.Delete(context.Background(), 4))
	})

	t.Run("missing user", func(t *testing.T) {
		svc, _, _ := newUserServiceForTest(t, "")
		assert.True(t, apperrors.IsCode(svc.Delete(context.Background(), 404), "NOT_FOUND"))
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, users, _ := newUserServiceForTest(t, "")
		users.deleteErr = errors.New("disk full")
		assert.True(t, apperrors.IsCode(svc.Delete(context.Background(), 4), "STORAGE_ERROR"))
	})
}

func TestUserService_EnsureAdmin(t *testing.T) {
	svc, users, _ := newUserServiceForTest(t, "")
	delete(users.users, 1)

	user, created, err := svc.EnsureAdmin(context.Background(), "Administrador", "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	again, created, err := svc.EnsureAdmin(context.Background(), "Other", "admin", "changed")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Administrador", again.Name)
}

func TestUserService_ListByRole(t *testing.T) {
	svc, _, _ := newUserServiceForTest(t, "")
	employees, err := svc.ListByRole(context.Background(), domain.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "luis", employees[0].Username)
}
