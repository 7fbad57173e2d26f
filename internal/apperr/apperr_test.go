package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
		is     error
	}{
		{"not found", NotFound("product", "abc"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.c"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"invalid input", InvalidInput("bad"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("no"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("no"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.is)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "product with id abc not found", NotFound("product", "abc").Message)
}

func TestHTTPStatus_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NotFound("review", "x"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))
	assert.Equal(t, http.StatusConflict, HTTPStatus(fmt.Errorf("dup: %w", ErrAlreadyExists)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("disk on fire")))
}

func TestAs(t *testing.T) {
	ae := As(errors.New("disk on fire"))
	assert.Equal(t, "INTERNAL_ERROR", ae.Code)
	assert.Equal(t, "an internal error occurred", ae.Message)

	orig := InvalidInput("nope")
	assert.Same(t, orig, As(fmt.Errorf("ctx: %w", orig)))
}
