package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("load product: %w", ErrProductNotFound.WithDetails("prd_x"))

	assert.True(t, errors.Is(err, ErrProductNotFound))
	assert.False(t, errors.Is(err, ErrUserNotFound))
	assert.True(t, HasCode(err, ""))
	assert.True(t, HasCode(err, "SF-PROD-4040"))
	assert.False(t, HasCode(err, "SF-USER-4040"))
	assert.False(t, HasCode(errors.New("plain"), ""))
	assert.Equal(t, "SF-PROD-4040", CodeOf(err))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, http.StatusNotFound, ErrProductNotFound.Status())
}

func TestDomainError_Error(t *testing.T) {
	assert.Equal(t, "[SF-SYS-4000] bad request", ErrBadRequest.Error())
	assert.Equal(t, "[SF-SYS-4000] bad request: unexpected EOF",
		ErrBadRequest.WithDetails("unexpected EOF").Error())
	assert.Equal(t, "[SF-SYS-4040] route not found: GET /x",
		ErrRouteNotFound.WithDetailsf("%s %s", "GET", "/x").Error())
	assert.Empty(t, ErrBadRequest.Details, "WithDetails must not mutate the shared error")
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrStorageError.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorageError)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"SF-SYS-4000", http.StatusBadRequest},
		{"SF-SYS-4040", http.StatusNotFound},
		{"SF-SYS-4130", http.StatusRequestEntityTooLarge},
		{"SF-SYS-4290", http.StatusTooManyRequests},
		{"SF-USER-4090", http.StatusConflict},
		{"SF-USER-4010", http.StatusUnauthorized},
		{"SF-SYS-5030", http.StatusServiceUnavailable},
		{"SF-SYS-5000", http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
		{"bogus", http.StatusInternalServerError},
		{"SF-X-1001", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}
