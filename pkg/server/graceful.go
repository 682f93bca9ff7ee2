// Package server runs the HTTP listener with graceful shutdown and reloads
// the graph on SIGHUP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-grc-explorer/pkg/logging"
)

// DefaultShutdownTimeout bounds the drain of in-flight requests
const DefaultShutdownTimeout = 30 * time.Second

// ReloadFunc reloads the graph snapshot
type ReloadFunc func(ctx context.Context) error

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          logging.Logger
	shutdownCh      chan struct{}
	shutdownOnce    sync.Once
	reloadFn        ReloadFunc
	reloadMu        sync.RWMutex
}

// NewGracefulServer wraps srv. A non-positive timeout means
// DefaultShutdownTimeout.
func NewGracefulServer(srv *http.Server, shutdownTimeout time.Duration, logger logging.Logger) *GracefulServer {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GracefulServer{
		server:          srv,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With(logging.Component("server")),
		shutdownCh:      make(chan struct{}),
	}
}

// Run listens on the server address and serves until ctx is done, then
// drains in-flight requests
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	return gs.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))
		errCh <- gs.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return gs.Shutdown(gs.shutdownTimeout)
	}
}

// Shutdown initiates a graceful shutdown. Later calls return nil.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))
		if err = gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("shutdown failed", logging.Error(err))
			return
		}
		gs.logger.Info("server shutdown complete")
	})
	return err
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetReloadFunc sets the function called on SIGHUP
func (gs *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	gs.reloadMu.Lock()
	defer gs.reloadMu.Unlock()
	gs.reloadFn = fn
}

// Reload runs the reload function, if any
func (gs *GracefulServer) Reload(ctx context.Context) error {
	gs.reloadMu.RLock()
	fn := gs.reloadFn
	gs.reloadMu.RUnlock()

	if fn == nil {
		gs.logger.Warn("reload requested, but no reload function configured")
		return nil
	}
	gs.logger.Info("reloading graph")
	if err := fn(ctx); err != nil {
		gs.logger.Error("reload failed", logging.Error(err))
		return err
	}
	return nil
}

// HandleReloadSignals reloads on every SIGHUP until ctx is done. Reload
// errors are logged; the previous graph stays in place.
func (gs *GracefulServer) HandleReloadSignals(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	return gs.handleReloads(ctx, sigCh)
}

func (gs *GracefulServer) handleReloads(ctx context.Context, sigCh <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigCh:
			gs.logger.Info("received signal", logging.String("signal", sig.String()))
			_ = gs.Reload(ctx)
		}
	}
}
