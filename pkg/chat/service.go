package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/graph"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
)

// DefaultMaxTokens caps a single answer
const DefaultMaxTokens = 2048

// NewProvider builds the named provider. An empty name or "none" yields a
// nil provider and no error.
func NewProvider(ctx context.Context, name, apiKey, model string) (Provider, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "anthropic":
		a, err := NewAnthropic(apiKey, model)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "gemini":
		g, err := NewGemini(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", name)
	}
}

// Service answers questions about the current graph. The system prompt is
// rebuilt only when the graph changes.
type Service struct {
	mu        sync.RWMutex
	provider  Provider
	graph     *graph.Graph
	prompt    string
	maxTokens int
	logger    logging.Logger
	metrics   *metrics.Registry
}

// NewService creates a service. provider may be nil; Stream then fails with
// ErrNoProvider.
func NewService(provider Provider, maxTokens int, logger logging.Logger, m *metrics.Registry) *Service {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{provider: provider, maxTokens: maxTokens, logger: logger, metrics: m}
}

// SetGraph installs the graph the assistant answers about
func (s *Service) SetGraph(g *graph.Graph, schema *graph.Payload) {
	prompt := SystemPrompt(g, schema)
	s.mu.Lock()
	s.graph = g
	s.prompt = prompt
	s.mu.Unlock()
}

// Available reports whether a provider is configured
func (s *Service) Available() bool { return s.provider != nil }

// ProviderName returns the configured provider name, or "none"
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

// Graph returns the graph prompts are built from
func (s *Service) Graph() *graph.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

// Prompt returns the system prompt for a request
func (s *Service) Prompt(selected string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return WithSelection(s.prompt, selected)
}

// Check reports the error a request would fail with before any output
func (s *Service) Check(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if s.provider == nil {
		return ErrNoProvider
	}
	return nil
}

// Stream answers req as a sequence of events on w. Request and provider
// errors are returned before anything is written; a failure mid-stream is
// also written as an error event.
func (s *Service) Stream(ctx context.Context, req Request, w *EventWriter) error {
	if err := s.Check(req); err != nil {
		return err
	}

	start := time.Now()
	deltas := 0
	err := s.provider.Stream(ctx, s.Prompt(req.SelectedNode), req.Messages, s.maxTokens, func(text string) error {
		deltas++
		return w.Delta(text)
	})
	if s.metrics != nil {
		s.metrics.RecordChatStream(s.provider.Name(), err, deltas, time.Since(start))
	}
	if err != nil {
		s.logger.Warn("chat stream failed",
			logging.String("provider", s.provider.Name()),
			logging.Count(deltas),
			logging.Error(err))
		_ = w.Error(err.Error())
		return err
	}
	s.logger.Debug("chat stream done",
		logging.String("provider", s.provider.Name()),
		logging.Count(deltas),
		logging.Latency(time.Since(start)))
	return w.Done()
}

// Ask answers req and returns the whole reply
func (s *Service) Ask(ctx context.Context, req Request) (string, error) {
	if err := s.Check(req); err != nil {
		return "", err
	}
	var b strings.Builder
	start := time.Now()
	deltas := 0
	err := s.provider.Stream(ctx, s.Prompt(req.SelectedNode), req.Messages, s.maxTokens, func(text string) error {
		deltas++
		b.WriteString(text)
		return nil
	})
	if s.metrics != nil {
		s.metrics.RecordChatStream(s.provider.Name(), err, deltas, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
