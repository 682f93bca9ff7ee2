package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/filter"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
	"github.com/dd0wney/cluso-grc-explorer/pkg/validation"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondErr maps err to a status code. Errors without a known mapping are
// logged and reported as a generic failure of operation.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(operation+" failed", logging.Path(r.URL.Path), logging.Error(err))
		msg = fmt.Sprintf("%s failed", operation)
	}
	s.respondError(w, status, msg)
}

func statusFor(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrStoreFull):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, graph.ErrNodeNotFound), errors.Is(err, graph.ErrEdgeNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, filter.ErrUnknownLayout):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chat.ErrNoMessages):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chat.ErrNoProvider):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "request body too large"
	default:
		return http.StatusInternalServerError, ""
	}
}

var errBadRequest = errors.New("invalid request")

// decodeJSON decodes the body into v and runs its validate tags. An empty
// body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := validation.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
