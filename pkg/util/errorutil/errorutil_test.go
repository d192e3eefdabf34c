package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})

	t.Run("wrapped domain error is unwrapped", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", NewValidationError("bad input", nil))
		de := ToDomainError(err)
		assert.Equal(t, "VALIDATION_FAILED", de.Code)
		assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	})

	t.Run("fiber error keeps its status", func(t *testing.T) {
		de := ToDomainError(fiber.NewError(http.StatusNotFound, "Cannot GET /nope"))
		assert.Equal(t, "NOT_FOUND", de.Code)
		assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
		assert.Equal(t, "Cannot GET /nope", de.Message)
	})

	t.Run("unknown errors become internal", func(t *testing.T) {
		de := ToDomainError(errors.New("boom"))
		assert.Equal(t, "INTERNAL_ERROR", de.Code)
		assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
		assert.Equal(t, "internal server error", de.Message)
	})
}

func TestStorageErrorHidesCause(t *testing.T) {
	cause := errors.New("pq: relation \"tickets\" does not exist")
	de := ToDomainError(NewStorageError(cause))

	assert.Equal(t, "STORAGE_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.NotContains(t, de.Message, "relation")
	assert.ErrorIs(t, de, cause)
}

func TestIsCode(t *testing.T) {
	err := NewInvalidTransition("Resuelto", "Pendiente")
	assert.True(t, IsCode(err, "INVALID_TRANSITION"))
	assert.False(t, IsCode(err, "CONFLICT"))
	assert.False(t, IsCode(errors.New("x"), "INVALID_TRANSITION"))
}
