package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{ErrTokenNotFound, http.StatusBadRequest, "TOKEN_NOT_FOUND"},
		{ErrTokenUsed, http.StatusBadRequest, "TOKEN_USED"},
		{ErrTokenExpired, http.StatusBadRequest, "TOKEN_EXPIRED"},
		{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMITED"},
		{ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{NewValidationError(FieldError{Field: "credits", Message: "credits is required"}), http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		wrapped := fmt.Errorf("context: %w", tt.err)
		assert.Equal(t, tt.want, MapErrorToStatus(wrapped), tt.err.Error())
		assert.Equal(t, tt.code, Code(wrapped), tt.err.Error())
	}
}
