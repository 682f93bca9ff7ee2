package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-grc-explorer/pkg/api"
	"github.com/dd0wney/cluso-grc-explorer/pkg/auth"
	"github.com/dd0wney/cluso-grc-explorer/pkg/graphql"
	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
	"github.com/dd0wney/cluso-grc-explorer/pkg/mcp"
	"github.com/dd0wney/cluso-grc-explorer/pkg/metrics"
	"github.com/dd0wney/cluso-grc-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-grc-explorer/pkg/server"
	"github.com/dd0wney/cluso-grc-explorer/pkg/source"
	"github.com/dd0wney/cluso-grc-explorer/pkg/watch"
)

var (
	serveAddr  string
	serveMCP   bool
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer API",
	Long: `Load the graph and serve the REST, event stream and GraphQL APIs.
SIGHUP reloads the graph; --watch reloads it when a local snapshot changes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve the MCP tools on stdin/stdout")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload when the local graph source changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveWatch {
		cfg.Graph.Watch = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.DefaultRegistry()
	cache, err := openCache(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	store := newStore(cfg, logger, reg)
	bus := pubsub.New(pubsub.DefaultBuffer)
	defer bus.Shutdown()

	assistant, err := newChat(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}

	var jwt *auth.JWTManager
	if cfg.Auth.Enabled {
		if jwt, err = auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL); err != nil {
			return err
		}
	}

	schema, err := graphql.NewSchema(&graphql.Backend{Sessions: store})
	if err != nil {
		return fmt.Errorf("graphql schema: %w", err)
	}

	apiServer := api.NewServer(api.Options{
		Config:   cfg.Server,
		Cache:    cache,
		Sessions: store,
		Bus:      bus,
		Chat:     assistant,
		GraphQL:  graphql.NewHandler(schema, graphql.DefaultMaxDepth, logger),
		JWT:      jwt,
		Metrics:  reg,
		Logger:   logger,
	})

	// Registered hooks move the store and the assistant onto the graph.
	if _, err := cache.Reload(ctx); err != nil {
		return fmt.Errorf("initial graph load: %w", err)
	}

	gs := server.NewGracefulServer(apiServer.HTTPServer(), cfg.Server.ShutdownTimeout, logger)
	gs.SetReloadFunc(func(ctx context.Context) error {
		_, err := cache.Reload(ctx)
		return err
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return gs.Run(ctx) })
	g.Go(func() error { return store.Run(ctx) })
	g.Go(func() error { return gs.HandleReloadSignals(ctx) })

	if cfg.Graph.Watch {
		w, err := newWatcher(cache)
		if err != nil {
			return err
		}
		if w != nil {
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	if serveMCP {
		svc := mcp.NewService(store, apiServer.NewSession, logger)
		g.Go(func() error {
			// A departing MCP client does not stop the HTTP server.
			if err := mcp.ServeStdio(ctx, svc); err != nil && ctx.Err() == nil {
				logger.Warn("mcp server stopped", logging.Error(err))
			}
			return nil
		})
	}

	logger.Info("grc-explorer serving",
		logging.String("addr", cfg.Server.Addr),
		logging.Source(source.Redact(cfg.Graph.Source)),
		logging.String("chat", assistant.ProviderName()),
		logging.Bool("auth", jwt != nil),
		logging.Bool("mcp", serveMCP))

	return g.Wait()
}

// newWatcher watches local sources. Remote sources reload on SIGHUP or
// POST /api/reload only.
func newWatcher(cache *source.Cache) (*watch.Watcher, error) {
	fs, ok := cache.Source().(*source.FileSource)
	if !ok {
		logger.Warn("graph watch ignored for non-file source", logging.Source(cache.Source().String()))
		return nil, nil
	}
	return watch.New(fs.Path(), cfg.Graph.WatchDebounce, func(ctx context.Context) error {
		_, err := cache.Reload(ctx)
		return err
	}, logger)
}
