package server

import (
	"context"
	"sync"

	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/config"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/nango"
)

// ServerContext holds the shared state for the MCP server: the loaded
// configuration, the calendar gateway and the instrumentation hooks the
// tool handlers report through.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	config      *config.Config
	gateway     *calendar.Gateway
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context. The gateway is built
// lazily on first use so the server can start (and report health) before
// the auth proxy configuration is complete.
func NewServerContext(ctx context.Context) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
	}
}

// Context returns the lifecycle context; Shutdown cancels it.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Gateway returns the calendar gateway, creating and caching it on first
// use. Construction loads the environment configuration and wires the auth
// proxy client, so a misconfigured deployment surfaces here rather than at
// startup.
func (sc *ServerContext) Gateway() (*calendar.Gateway, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gateway != nil {
		return sc.gateway, nil
	}

	cfg := sc.config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
		sc.config = loaded
	}

	client := nango.New(cfg)
	if sc.metrics != nil {
		client.SetMetrics(sc.metrics)
	}

	sc.gateway = calendar.NewGateway(cfg, client, nil)
	return sc.gateway, nil
}

// SetGateway sets the calendar gateway, replacing any cached instance.
// Tests use this to inject a gateway backed by a mock provider API.
func (sc *ServerContext) SetGateway(gateway *calendar.Gateway) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gateway = gateway
}

// Config returns the loaded configuration, or nil if none has been set or
// built yet.
func (sc *ServerContext) Config() *config.Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// SetConfig sets the configuration used to build the gateway on first use.
func (sc *ServerContext) SetConfig(cfg *config.Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
}

// Metrics returns the metrics recorder, or nil when instrumentation is
// disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder used by the tool handlers.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// AuditLogger returns the audit logger, or nil when audit logging is
// disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger used by the tool handlers.
func (sc *ServerContext) SetAuditLogger(auditLogger *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = auditLogger
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the lifecycle context. Calling it again is a no-op.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
