// ABOUTME: Gateway orchestrator that runs the HTTP API, optional gRPC health, and tailnet listeners
// ABOUTME: Owns the upstream clients and the server lifecycle

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/keepalive"
	"tailscale.com/tsnet"

	"github.com/2389/docex-gateway/internal/config"
	"github.com/2389/docex-gateway/internal/webui"
)

// Gateway serves the document exchange API.
type Gateway struct {
	config      *config.Config
	backends    *Backends
	httpServer  *http.Server
	grpcServer  *grpc.Server
	health      *health.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	// probeTimeout bounds each upstream availability probe
	probeTimeout time.Duration

	// probeInterval is how often the gRPC health status is refreshed
	probeInterval time.Duration

	now func() time.Time

	ready    chan struct{}
	addrMu   sync.RWMutex
	httpAddr net.Addr
	grpcAddr net.Addr
}

// New creates a Gateway whose clients are built from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	backends, err := NewBackends(cfg, logger)
	if err != nil {
		return nil, err
	}
	gw, err := NewWithBackends(cfg, backends, logger)
	if err != nil {
		backends.Close()
		return nil, err
	}
	return gw, nil
}

// NewWithBackends creates a Gateway that serves requests with the given clients.
func NewWithBackends(cfg *config.Config, backends *Backends, logger *slog.Logger) (*Gateway, error) {
	if backends == nil {
		backends = &Backends{}
	}

	gw := &Gateway{
		config:        cfg,
		backends:      backends,
		logger:        logger.With("component", "gateway"),
		probeTimeout:  2 * time.Second,
		probeInterval: 30 * time.Second,
		now:           time.Now,
		ready:         make(chan struct{}),
	}

	ui, err := webui.New(webui.Config{
		Title:  cfg.WebUI.Title,
		Mock:   backends.Mock,
		Logger: logger.With("component", "webui"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating web UI: %w", err)
	}

	mux := http.NewServeMux()
	gw.registerAPIRoutes(mux)
	ui.RegisterRoutes(mux)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.middlewareChain(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Server.GRPCAddr != "" {
		gw.grpcServer, gw.health = createGRPCServer()
	}

	return gw, nil
}

// Handler returns the HTTP handler with middleware applied.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Ready is closed once the listeners are bound.
func (g *Gateway) Ready() <-chan struct{} {
	return g.ready
}

// HTTPAddr returns the bound HTTP address, or nil before Ready.
func (g *Gateway) HTTPAddr() net.Addr {
	g.addrMu.RLock()
	defer g.addrMu.RUnlock()
	return g.httpAddr
}

// GRPCAddr returns the bound gRPC address, or nil when gRPC is disabled.
func (g *Gateway) GRPCAddr() net.Addr {
	g.addrMu.RLock()
	defer g.addrMu.RUnlock()
	return g.grpcAddr
}

// createGRPCServer creates the gRPC server carrying the health service.
func createGRPCServer() (*grpc.Server, *health.Server) {
	server := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    15 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	hs := health.NewServer()
	registerHealthService(server, hs)
	return server, hs
}

// setupTCPListeners creates standard TCP listeners for HTTP and, when
// configured, gRPC.
func (g *Gateway) setupTCPListeners() (httpLn, grpcLn net.Listener, err error) {
	g.logger.Info("starting gateway",
		"http_addr", g.config.Server.HTTPAddr,
		"grpc_addr", g.config.Server.GRPCAddr,
	)

	httpLn, err = net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listening on HTTP address: %w", err)
	}

	if g.grpcServer == nil {
		return httpLn, nil, nil
	}
	grpcLn, err = net.Listen("tcp", g.config.Server.GRPCAddr)
	if err != nil {
		_ = httpLn.Close()
		return nil, nil, fmt.Errorf("listening on gRPC address: %w", err)
	}
	return httpLn, grpcLn, nil
}

// warnIgnoredAddresses logs a warning if server addresses are configured but Tailscale is enabled.
func (g *Gateway) warnIgnoredAddresses() {
	if g.config.Server.HTTPAddr != "" {
		g.logger.Warn("server.http_addr is ignored when tailscale is enabled",
			"http_addr", g.config.Server.HTTPAddr,
		)
	}
}

// setupListeners creates listeners based on configuration (Tailscale or TCP).
func (g *Gateway) setupListeners(ctx context.Context) (httpLn, grpcLn net.Listener, err error) {
	if g.config.Tailscale.Enabled {
		g.warnIgnoredAddresses()
		return g.startTailnet(ctx)
	}
	return g.setupTCPListeners()
}

// Run starts the servers and blocks until ctx is canceled or a server fails.
// Returns nil on graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	httpLn, grpcLn, err := g.setupListeners(ctx)
	if err != nil {
		return err
	}

	g.addrMu.Lock()
	g.httpAddr = httpLn.Addr()
	if grpcLn != nil {
		g.grpcAddr = grpcLn.Addr()
	}
	g.addrMu.Unlock()
	close(g.ready)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		g.logger.Info("HTTP server listening", "addr", httpLn.Addr().String())
		if err := g.httpServer.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	if grpcLn != nil {
		eg.Go(func() error {
			g.logger.Info("gRPC health server listening", "addr", grpcLn.Addr().String())
			if err := g.grpcServer.Serve(grpcLn); err != nil {
				return fmt.Errorf("gRPC server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			g.runHealthUpdater(egCtx)
			return nil
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		if ctx.Err() != nil {
			g.logger.Info("context canceled, initiating shutdown")
		}
		return g.gracefulShutdown()
	})

	return eg.Wait()
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// shutdownGRPCServer gracefully stops the gRPC server or force-stops on context cancel.
func (g *Gateway) shutdownGRPCServer(ctx context.Context) {
	if g.health != nil {
		g.health.Shutdown()
	}
	stopped := make(chan struct{})
	go func() {
		g.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		g.grpcServer.Stop()
	}
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops all servers and releases the clients.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	if g.grpcServer != nil {
		g.shutdownGRPCServer(ctx)
	}
	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	g.backends.Close()

	return errors.Join(errs...)
}
