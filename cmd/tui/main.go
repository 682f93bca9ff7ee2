// Command tui explores the GRC knowledge graph in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/config"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
	"github.com/dd0wney/cluso-grc-explorer/pkg/source"
)

func main() {
	configPath := flag.String("config", os.Getenv("GRC_CONFIG"), "config file (YAML)")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if flag.NArg() > 0 {
		cfg.Graph.Source = flag.Arg(0)
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		out = f
	}
	logger := logging.NewZapLogger(out, logging.ParseLevel(cfg.Log.Level))

	ctx := context.Background()
	term := &terminal{}
	sess, snap, err := openSession(ctx, cfg, term, logger)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	assistant, err := newAssistant(ctx, cfg, snap, logger)
	if err != nil {
		log.Fatalf("Failed to start assistant: %v", err)
	}

	p := tea.NewProgram(initialModel(sess, term, assistant), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}

// openSession loads the configured graph once and starts a session over it
func openSession(ctx context.Context, cfg *config.Config, term *terminal, logger logging.Logger) (*session.Session, *source.Snapshot, error) {
	src, err := source.Open(ctx, cfg.Graph.Source)
	if err != nil {
		return nil, nil, err
	}
	cache := source.NewCache(src, logger, nil)
	defer func() { _ = cache.Close() }()
	snap, err := cache.Reload(ctx)
	if err != nil {
		return nil, nil, err
	}

	defaults := cfg.Filters.FilterState()
	sess := session.New(snap.Graph, term, session.Options{
		Defaults:   &defaults,
		FocusDepth: cfg.Graph.FocusDepth,
		Logger:     logger,
	})
	return sess, snap, nil
}

// newAssistant builds the chat service; without a key it stays unavailable
func newAssistant(ctx context.Context, cfg *config.Config, snap *source.Snapshot, logger logging.Logger) (*chat.Service, error) {
	name := cfg.ChatProvider()
	apiKey := cfg.Chat.AnthropicKey
	if name == config.ProviderGemini {
		apiKey = cfg.Chat.GeminiKey
	}
	provider, err := chat.NewProvider(ctx, name, apiKey, cfg.Chat.Model)
	if err != nil {
		return nil, fmt.Errorf("chat provider %s: %w", name, err)
	}
	svc := chat.NewService(provider, cfg.Chat.MaxTokens, logger, nil)
	svc.SetGraph(snap.Graph, snap.Payload)
	return svc, nil
}
