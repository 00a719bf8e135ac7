package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesSentinelOfSameKind(t *testing.T) {
	err := fmt.Errorf("deleting: %w", NotFound("image enduit/a.jpg not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Store("failed to list images", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrStore))
	assert.Equal(t, "failed to list images: connection reset", err.Error())
}

func TestKindOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInvalidCategory, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindCapacityExceeded, http.StatusConflict},
		{KindAlreadyExists, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindUpstream, http.StatusBadGateway},
		{KindStore, http.StatusBadGateway},
		{KindConfiguration, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), tt.kind)
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "service is not configured", PublicMessage(Configuration("GOOGLE_PLACES_API_KEY missing")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("nil pointer")))
	assert.Equal(t, "a.jpg already exists", PublicMessage(AlreadyExists("a.jpg")))
}
