package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calbridge/calbridge/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is where the metrics listener binds unless
	// configured otherwise.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of the servers.
	DefaultShutdownTimeout = 30 * time.Second

	metricsReadHeaderTimeout = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 60 * time.Second
)

// MetricsServerConfig configures the standalone metrics listener.
type MetricsServerConfig struct {
	// Addr is the bind address, DefaultMetricsAddr when empty.
	Addr string

	// InstrumentationProvider must be enabled; its Prometheus exporter
	// publishes to the registry that /metrics exposes.
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer exposes /metrics on its own port, away from the MCP
// transport, so scraping stays off the listener that tool traffic uses.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
}

// NewMetricsServer validates the config and returns a server that binds
// its listener on StartWithReadySignal.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("metrics server requires an instrumentation provider")
	}
	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is disabled")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	return &MetricsServer{addr: addr}, nil
}

// metricsHandler routes /metrics to the global Prometheus registry, which
// the provider's exporter publishes to, plus a liveness probe for the
// metrics listener itself.
func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// StartWithReadySignal binds the listener, closes ready, and serves until
// Shutdown. Binding before signaling lets the caller treat a port
// conflict as a startup failure instead of discovering missing metrics
// later. It also resolves ":0" style addresses, so Addr reports the real
// port once ready is closed.
func (s *MetricsServer) StartWithReadySignal(ready chan<- struct{}) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics listener: %w", err)
	}

	s.addr = listener.Addr().String()
	s.httpServer = &http.Server{
		Handler:           metricsHandler(),
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}

	slog.Info("metrics listener bound", "addr", s.addr)
	close(ready)
	return s.httpServer.Serve(listener)
}

// Shutdown drains in-flight scrapes. Calling it on a server that never
// started is a no-op.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("stopping metrics listener")
	return s.httpServer.Shutdown(ctx)
}

// Addr reports the bound listener address once the server has started,
// the configured address before that.
func (s *MetricsServer) Addr() string {
	return s.addr
}
