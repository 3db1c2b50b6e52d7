package errcodes

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_ThroughWrapping(t *testing.T) {
	err := errors.Wrap(NotFoundf("Book with ID %d", 7), "issue failed")

	e, ok := Lookup(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.HTTPCode)
	assert.Equal(t, "Book with ID 7 not found.", e.Message)
	assert.Equal(t, "not_found", e.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("Student"), http.StatusNotFound},
		{"conflict", Conflict("dup"), http.StatusConflict},
		{"bad request", BadRequest("no copies"), http.StatusBadRequest},
		{"empty update", EmptyUpdate(), http.StatusBadRequest},
		{"validation", ValidationError("bad"), http.StatusBadRequest},
		{"wrapped", errors.WithStack(Conflict("x")), http.StatusConflict},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	assert.True(t, errors.Is(errors.WithStack(EmptyUpdate()), EmptyUpdate()))
	assert.False(t, errors.Is(Conflict("a"), Conflict("b")))
}
