package graphql

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// Request represents a GraphQL HTTP request
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response represents a GraphQL HTTP response
type Response struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
}

// Error represents a GraphQL error
type Error struct {
	Message string `json:"message"`
}

// Handler handles GraphQL HTTP requests. CORS and authentication come from
// the surrounding middleware.
type Handler struct {
	schema   graphql.Schema
	maxDepth int
	logger   logging.Logger
}

// NewHandler creates a GraphQL HTTP handler. maxDepth <= 0 means
// DefaultMaxDepth.
func NewHandler(schema graphql.Schema, maxDepth int, logger logging.Logger) *Handler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{schema: schema, maxDepth: maxDepth, logger: logger.With(logging.Component("graphql"))}
}

// Execute runs one request after checking its depth
func (h *Handler) Execute(ctx context.Context, req Request) *graphql.Result {
	if err := ValidateQueryDepth(req.Query, h.maxDepth); err != nil {
		return &graphql.Result{Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(err)}}
	}
	return graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// ServeHTTP accepts POST with a JSON body and GET with a query parameter
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	switch r.Method {
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
		if vars := r.URL.Query().Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				http.Error(w, "Invalid variables", http.StatusBadRequest)
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if req.Query == "" {
		http.Error(w, "Missing query", http.StatusBadRequest)
		return
	}

	result := h.Execute(r.Context(), req)
	response := Response{Data: result.Data}
	if result.HasErrors() {
		response.Errors = make([]Error, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = Error{Message: err.Message}
		}
		h.logger.Debug("graphql errors", logging.Count(len(result.Errors)), logging.String("first", result.Errors[0].Message))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Warn("encode graphql response", logging.Error(err))
	}
}
