package api

import (
	"net/http"

	"github.com/dd0wney/cluso-grc-explorer/pkg/api/middleware"
	"github.com/dd0wney/cluso-grc-explorer/pkg/auth"
	"github.com/dd0wney/cluso-grc-explorer/pkg/health"
)

func (s *Server) routes(mux *http.ServeMux) {
	// Health and metrics
	mux.Handle("GET /health", s.health.Handler(health.ProbeStatus, true))
	mux.Handle("GET /health/live", s.health.Handler(health.ProbeLive, true))
	mux.Handle("GET /health/ready", s.health.Handler(health.ProbeReady, false))
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Graph
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.Handle("POST /api/reload", middleware.RequireRole(auth.RoleAdmin, http.HandlerFunc(s.handleReload)))

	// Chat
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/refs", s.handleRefs)

	// Sessions
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/view", s.handleView)
	mux.HandleFunc("GET /api/sessions/{id}/filters", s.handleGetFilters)
	mux.HandleFunc("POST /api/sessions/{id}/filters", s.handleSetFilters)
	mux.HandleFunc("POST /api/sessions/{id}/tap", s.handleTap)
	mux.HandleFunc("POST /api/sessions/{id}/search", s.handleSearch)
	mux.HandleFunc("POST /api/sessions/{id}/navigate", s.handleNavigate)
	mux.HandleFunc("POST /api/sessions/{id}/clear", s.handleClear)
	mux.HandleFunc("GET /api/sessions/{id}/selection", s.handleSelection)
	mux.HandleFunc("GET /api/sessions/{id}/nodes/{node}", s.handleNodeDetail)
	mux.HandleFunc("GET /api/sessions/{id}/sidebar", s.handleSidebar)
	mux.HandleFunc("GET /api/sessions/{id}/events", s.handleEvents)

	// GraphQL
	if s.graphql != nil {
		mux.Handle("/graphql", s.graphql)
	}
}
