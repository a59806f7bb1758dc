package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKindThroughWraps(t *testing.T) {
	err := fmt.Errorf("turn failed: %w", InvalidState("no quiz is pending"))

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrSessionNotFound))
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestIndexingCarriesPartialCount(t *testing.T) {
	err := Indexing(100, errors.New("upsert timeout"))

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, 100, appErr.Indexed)
	assert.Contains(t, err.Error(), "upsert timeout")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindEmptyDocument, http.StatusBadRequest},
		{KindSessionNotFound, http.StatusNotFound},
		{KindInvalidState, http.StatusConflict},
		{KindQuizParse, http.StatusBadGateway},
		{KindIndexing, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}
