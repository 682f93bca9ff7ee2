// Package api serves the explorer over HTTP: the graph payload, per-session
// filter and interaction endpoints, live render streams, chat and GraphQL.
package api

import (
	"context"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/api/middleware"
	"github.com/dd0wney/cluso-grc-explorer/pkg/auth"
	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/config"
	"github.com/dd0wney/cluso-grc-explorer/pkg/health"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
	"github.com/dd0wney/cluso-grc-explorer/pkg/source"
)

// Version is reported by /health
var Version = "dev"

// Options wires the server to its collaborators. Cache, Sessions and Bus are
// required.
type Options struct {
	Config   config.ServerConfig
	Cache    *source.Cache
	Sessions *session.Store
	Bus      *pubsub.Bus
	Chat     *chat.Service
	GraphQL  http.Handler
	Health   *health.HealthChecker
	JWT      *auth.JWTManager
	Metrics  *metrics.Registry
	Logger   logging.Logger
}

// Server represents the HTTP API server
type Server struct {
	cache     *source.Cache
	sessions  *session.Store
	bus       *pubsub.Bus
	chat      *chat.Service
	graphql   http.Handler
	health    *health.HealthChecker
	jwt       *auth.JWTManager
	metrics   *metrics.Registry
	logger    logging.Logger
	limiter   *middleware.RateLimiter
	cfg       config.ServerConfig
	startTime time.Time
}

// NewServer creates the server and subscribes it to graph reloads and
// session evictions
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.DefaultRegistry()
	}
	hc := opts.Health
	if hc == nil {
		hc = health.NewHealthChecker(Version)
	}
	s := &Server{
		cache:     opts.Cache,
		sessions:  opts.Sessions,
		bus:       opts.Bus,
		chat:      opts.Chat,
		graphql:   opts.GraphQL,
		health:    hc,
		jwt:       opts.JWT,
		metrics:   m,
		logger:    logger.With(logging.Component("api")),
		cfg:       opts.Config,
		startTime: time.Now(),
	}
	if opts.Config.RateLimit > 0 {
		burst := opts.Config.RateBurst
		if burst <= 0 {
			burst = int(opts.Config.RateLimit) * 2
		}
		s.limiter = middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerSecond: opts.Config.RateLimit,
			BurstSize:         burst,
			ClientExpiration:  10 * time.Minute,
			MaxClients:        10000,
		})
	}

	s.registerHealthChecks()
	s.cache.OnReload(s.onReload)
	s.sessions.OnEvict(s.onEvict)
	return s
}

func (s *Server) registerHealthChecks() {
	graphState := func() (health.GraphState, bool) {
		snap := s.cache.Current()
		if snap == nil {
			return health.GraphState{}, false
		}
		return health.GraphState{
			Nodes:    snap.Graph.NodeCount(),
			Edges:    snap.Graph.EdgeCount(),
			Dangling: snap.Graph.DanglingCount(),
			Version:  snap.Version,
			LoadedAt: snap.LoadedAt,
		}, true
	}
	s.health.Register("graph", health.ProbeStatus|health.ProbeReady, health.GraphCheck(graphState))
	s.health.Register("sessions", health.ProbeStatus, health.CapacityCheck("sessions", s.sessions.Len, s.sessions.Max()))
	s.health.Register("memory", health.ProbeStatus|health.ProbeLive, health.MemoryCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.HeapAlloc, m.HeapSys
	}))
	if p, ok := s.cache.Source().(interface{ Ping(context.Context) error }); ok {
		s.health.Register("source", health.ProbeStatus, health.PingCheck("source", 2*time.Second, p.Ping))
	}
}

// onReload moves new sessions and the assistant to the new graph and tells
// live sessions about it
func (s *Server) onReload(snap *source.Snapshot) {
	s.sessions.SetGraph(snap.Graph)
	if s.chat != nil {
		s.chat.SetGraph(snap.Graph, snap.Payload)
	}
	notice := map[string]any{"version": snap.Version, "nodes": snap.Graph.NodeCount(), "edges": snap.Graph.EdgeCount()}
	for _, id := range s.sessions.IDs() {
		s.bus.Publish(topicFor(id), EventGraph, notice)
	}
	s.logger.Info("graph reloaded", logging.GraphVersion(snap.Version), logging.Count(s.sessions.Len()))
}

func (s *Server) onEvict(id string) {
	s.bus.Publish(topicFor(id), EventExpired, map[string]string{"session": id})
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = s.cfg.CORSOrigins

	var authn middleware.Middleware = func(next http.Handler) http.Handler { return next }
	if s.jwt != nil {
		authn = middleware.RequireAuth(s.jwt, s.logger, func() { s.metrics.AuthFailuresTotal.Inc() },
			"/health", "/health/live", "/health/ready", "/metrics")
	}

	return middleware.Chain(mux,
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.Metrics(s.metrics, routeLabel),
		middleware.SecurityHeaders(false),
		middleware.CORS(cors),
		middleware.RateLimit(s.limiter, middleware.RemoteIP, s.logger, func(*http.Request, string) { s.metrics.RateLimitedTotal.Inc() }),
		authn,
		middleware.BodySizeLimit(s.cfg.MaxBodyBytes),
	)
}

// HTTPServer returns an http.Server for the configured address
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// routeLabel collapses session ids so metrics keep one series per route
func routeLabel(r *http.Request) string {
	const prefix = "/api/sessions/"
	p := r.URL.Path
	if !strings.HasPrefix(p, prefix) || len(p) == len(prefix) {
		return p
	}
	rest := p[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		tail := rest[i+1:]
		if j := strings.IndexByte(tail, '/'); j >= 0 {
			tail = tail[:j] + "/{node}"
		}
		return prefix + "{id}/" + tail
	}
	return prefix + "{id}"
}
