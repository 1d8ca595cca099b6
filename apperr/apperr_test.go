package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		Unauthorized("x"):  http.StatusUnauthorized,
		Forbidden("x"):     http.StatusForbidden,
		NotFound("x"):      http.StatusNotFound,
		Conflict("x"):      http.StatusConflict,
		Validation("x"):    http.StatusBadRequest,
		External("x", nil): http.StatusBadGateway,
		Internal("x", nil): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.Status(), err.Kind)
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("loading booking: %w", NotFound("booking not found"))

	ae := As(wrapped)
	assert.Equal(t, KindNotFound, ae.Kind)
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestAsTreatsPlainErrorsAsInternal(t *testing.T) {
	cause := errors.New("socket closed")

	ae := As(cause)
	assert.Equal(t, KindInternal, ae.Kind)
	assert.ErrorIs(t, ae, cause)
}
