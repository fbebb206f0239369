package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/facet/pkg/domain"
)

// requestError marks failures caused by the request payload.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

type errorBody struct {
	Error    string            `json:"error"`
	Messages map[string]string `json:"messages,omitempty"`
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs  *domain.ValidationErrors
		reqErr *requestError
	)
	switch {
	case errors.As(err, &verrs):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Messages: verrs.Messages()})
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.As(err, &reqErr), errors.Is(err, domain.ErrUnknownAttribute), errors.Is(err, domain.ErrUnsupported):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}
