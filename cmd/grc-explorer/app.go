package main

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-grc-explorer/pkg/chat"
	"github.com/dd0wney/cluso-grc-explorer/pkg/config"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/session"
	"github.com/dd0wney/cluso-grc-explorer/pkg/source"
)

// openCache opens the configured graph source. The cache is empty until the
// first Reload.
func openCache(ctx context.Context, c *config.Config, log logging.Logger, reg *metrics.Registry) (*source.Cache, error) {
	src, err := source.Open(ctx, c.Graph.Source)
	if err != nil {
		return nil, err
	}
	return source.NewCache(src, log, reg), nil
}

// newStore builds the session store from the session and filter sections
func newStore(c *config.Config, log logging.Logger, reg *metrics.Registry) *session.Store {
	defaults := c.Filters.FilterState()
	return session.NewStore(nil, session.StoreOptions{
		Max:        c.Sessions.Max,
		IdleTTL:    c.Sessions.IdleTTL,
		Defaults:   &defaults,
		FocusDepth: c.Graph.FocusDepth,
		Logger:     log,
		Metrics:    reg,
	})
}

// newChat builds the assistant. A missing provider leaves it unavailable.
func newChat(ctx context.Context, c *config.Config, log logging.Logger, reg *metrics.Registry) (*chat.Service, error) {
	name := c.ChatProvider()
	key := ""
	switch name {
	case config.ProviderAnthropic:
		key = c.Chat.AnthropicKey
	case config.ProviderGemini:
		key = c.Chat.GeminiKey
	}
	provider, err := chat.NewProvider(ctx, name, key, c.Chat.Model)
	if err != nil {
		return nil, fmt.Errorf("chat provider %s: %w", name, err)
	}
	return chat.NewService(provider, c.Chat.MaxTokens, log.With(logging.Component("chat")), reg), nil
}

// loadOnce reads the configured source a single time
func loadOnce(ctx context.Context, c *config.Config) (*source.Snapshot, error) {
	cache, err := openCache(ctx, c, logger, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cache.Close() }()
	return cache.Reload(ctx)
}
