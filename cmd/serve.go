package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/config"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/tools/calendar_tools"
)

// MetricsConfig carries the metrics listener flags into runServe.
type MetricsConfig struct {
	// Enabled starts the dedicated metrics listener. Defaults on; stdio
	// transport ignores it.
	Enabled bool

	// Addr is the metrics bind address, e.g. ":9090".
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode        bool
		transport        string
		httpAddr         string
		readOnly         bool
		disableStreaming bool
		metricsEnabled   bool
		metricsAddr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the Model Context Protocol (MCP) server exposing Google Calendar
tools for AI assistants.

Two transports are available:
  - stdio: serve over standard input/output (the default)
  - streamable-http: streamable HTTP transport on /mcp, with health
    endpoints and an optional dedicated metrics port

Authentication:
  The server holds no Google credentials. Each tool call fetches a
  short-lived access token from the configured auth proxy (Nango), so
  the required environment is the proxy connection:
    NANGO_BASE_URL, NANGO_SECRET_KEY, NANGO_CONNECTION_ID,
    NANGO_INTEGRATION_ID
  A .env file in the working directory is loaded if present.

Read-only mode:
  Use --read-only to register only the query tools and withhold
  create_meet_event and cancel_calendar_event.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}

			return runServe(transport, debugMode, httpAddr, readOnly, disableStreaming, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Log at debug level regardless of LOG_LEVEL")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport to serve on: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "Bind address of the streamable-http transport")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Register only the query tools; event creation and cancellation are withheld")
	cmd.Flags().BoolVar(&disableStreaming, "disable-streaming", false, "Serve plain HTTP responses for clients that cannot consume streams")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics on a dedicated port (also METRICS_ENABLED)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics bind address (also METRICS_ADDR)")

	return cmd
}

// applyMetricsEnv folds METRICS_ENABLED and METRICS_ADDR into the flag
// values. The environment can switch the listener on and move a default
// bind address; an explicitly chosen address stays.
func applyMetricsEnv(cfg MetricsConfig) MetricsConfig {
	if !cfg.Enabled && os.Getenv("METRICS_ENABLED") == "true" {
		cfg.Enabled = true
	}
	if cfg.Addr == "" || cfg.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.Addr = addr
		}
	}
	return cfg
}

func runServe(transport string, debugMode bool, httpAddr string, readOnly bool, disableStreaming bool, metricsConfig MetricsConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load the auth proxy configuration first: a deployment missing a
	// required setting must fail here, before any tool is registered.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := cfg.LogLevel
	if debugMode {
		logLevel = "debug"
	}
	logging.Setup(logLevel)

	metricsConfig = applyMetricsEnv(metricsConfig)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("building instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil && transport != "stdio" {
			slog.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// The metrics port only makes sense next to a long-lived listener, so
	// stdio runs skip it regardless of the flag.
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(provider, metricsConfig.Addr)
		if err != nil {
			return err
		}
	}

	// The calendar gateway is built from the server context on the first
	// tool call.
	serverContext := server.NewServerContext(shutdownCtx)
	serverContext.SetConfig(cfg)
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
	}
	defer func() {
		if metricsServer != nil {
			stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := metricsServer.Shutdown(stopCtx); err != nil {
				slog.Error("metrics server shutdown failed", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil && transport != "stdio" {
			slog.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("calbridge", version,
		mcpserver.WithToolCapabilities(true),
	)

	if transport != "stdio" {
		slog.Info("registering tools", "read_only", readOnly)
	}
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, httpAddr, disableStreaming, provider)
	default:
		return fmt.Errorf("unsupported transport type %q; use stdio or streamable-http", transport)
	}
}

// startMetricsServer brings up the dedicated metrics listener and waits
// for it to bind, so a port conflict aborts startup instead of silently
// dropping metrics.
func startMetricsServer(provider *instrumentation.Provider, addr string) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("building metrics server: %w", err)
	}

	ready := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
		close(failed)
	}()

	select {
	case <-ready:
		slog.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-failed:
		return nil, fmt.Errorf("starting metrics server: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("timed out waiting for the metrics listener to bind")
	}
}

// runStdioServer blocks on the stdio transport until the client closes
// the stream.
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("serving stdio: %w", err)
	}
	return nil
}

// registerAllTools registers every MCP tool group on the server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, ctx, readOnly); err != nil {
		return fmt.Errorf("registering calendar tools: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, addr string, disableStreaming bool, instrProvider *instrumentation.Provider) error {
	httpServer := server.NewHTTPServer(mcpSrv, disableStreaming)

	healthChecker := server.NewHealthChecker(serverContext)
	httpServer.SetHealthChecker(healthChecker)
	if instrProvider.Enabled() {
		httpServer.SetMetrics(instrProvider.Metrics())
	}

	slog.Info("starting streamable HTTP transport",
		"addr", addr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", "/healthz /readyz")
	slog.Info("credential handling is delegated to the auth proxy; no end-user authentication is terminated here")

	done := make(chan error, 1)
	go func() {
		defer close(done)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			done <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Flip readiness first so the load balancer drains this instance
		// while in-flight requests finish.
		healthChecker.SetReady(false)
		slog.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
	case err := <-done:
		if err != nil {
			return fmt.Errorf("HTTP server exited: %w", err)
		}
	}

	slog.Info("HTTP server stopped")
	return nil
}
