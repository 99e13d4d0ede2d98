package httpadapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/avolkov/newschat/internal/core/domain"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	wrap := func(kind error) error {
		return domain.WrapError(kind, "op", errors.New("cause"))
	}

	cases := []struct {
		err  error
		want int
	}{
		{wrap(domain.ErrInvalidInput), http.StatusBadRequest},
		{wrap(domain.ErrValidation), http.StatusBadRequest},
		{wrap(domain.ErrSessionNotFound), http.StatusNotFound},
		{wrap(domain.ErrRateLimited), http.StatusTooManyRequests},
		{wrap(domain.ErrNotInitialized), http.StatusServiceUnavailable},
		{wrap(domain.ErrUnavailable), http.StatusServiceUnavailable},
		{wrap(domain.ErrConfiguration), http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Errorf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
