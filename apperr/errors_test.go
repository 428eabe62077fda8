package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := NotFoundf("post %q not found", "hello")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidInput))

	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestUpstreamUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream("find post", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstreamStore)
	assert.Equal(t, "find post failed: connection reset", err.Error())
}

func TestStatusOf(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{InvalidInput("x"), http.StatusBadRequest},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Conflict("x"), http.StatusConflict},
		{ErrRateLimited, http.StatusTooManyRequests},
		{SlugExhausted("a", 3), http.StatusInternalServerError},
		{Upstream("op", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("x")))
	assert.Equal(t, CodeSlugExhausted, CodeOf(SlugExhausted("a", 1)))
}
