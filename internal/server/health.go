package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Status strings reported by the health endpoints.
const (
	healthStatusOK            = "ok"
	healthStatusNotReady      = "not ready"
	healthStatusNotConfigured = "not configured"
	healthStatusShuttingDown  = "shutting down"
)

// HealthResponse is the body returned by /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body returned by /healthz/detailed.
type DetailedHealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// HealthChecker serves the Kubernetes probe endpoints. Liveness only
// confirms the process answers HTTP; readiness additionally gates on the
// ready flag, on the auth proxy configuration being loaded, and on
// shutdown not having begun.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker returns a checker that reports ready until told
// otherwise. A nil server context skips the context-backed probes, which
// keeps handler tests free of setup.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness gate. The serve command clears it when
// graceful shutdown starts so the load balancer drains this instance.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the current state of the readiness gate.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

func (h *HealthChecker) shuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// configured reports whether the auth proxy configuration has been
// loaded. Without it no tool call can succeed, so an unconfigured server
// must not be routed traffic.
func (h *HealthChecker) configured() bool {
	return h.serverContext == nil || h.serverContext.Config() != nil
}

// healthProbe is one named readiness gate with the status string it
// reports when it trips.
type healthProbe struct {
	name string
	ok   func(*HealthChecker) bool
	fail string
}

// readinessProbes are evaluated in order. Every probe contributes an entry
// to the checks map either way, so operators can see which gate tripped
// rather than just that one did.
var readinessProbes = []healthProbe{
	{name: "ready", ok: (*HealthChecker).IsReady, fail: healthStatusNotReady},
	{name: "config", ok: (*HealthChecker).configured, fail: healthStatusNotConfigured},
	{name: "shutdown", ok: func(h *HealthChecker) bool { return !h.shuttingDown() }, fail: healthStatusShuttingDown},
}

// evaluate runs every readiness probe. The returned status is
// healthStatusOK when all pass, otherwise the status of the first probe
// that failed.
func (h *HealthChecker) evaluate() (map[string]string, string) {
	checks := make(map[string]string, len(readinessProbes))
	status := healthStatusOK
	for _, probe := range readinessProbes {
		if probe.ok(h) {
			checks[probe.name] = healthStatusOK
			continue
		}
		checks[probe.name] = probe.fail
		if status == healthStatusOK {
			status = probe.fail
		}
	}
	return checks, status
}

// LivenessHandler serves /healthz. It answers ok whenever the process can
// run a handler at all; restarting is the remedy for a dead process, not
// for one that is merely unready.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealthResponse(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz. Any failing probe takes the endpoint
// to 503 so no new MCP sessions are routed here.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, status := h.evaluate()
		writeHealthResponse(w, healthStatusCode(status), HealthResponse{
			Status: status,
			Checks: checks,
		})
	})
}

// DetailedHealthHandler serves /healthz/detailed: the readiness verdict
// plus process uptime, for operators poking at a live instance.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, status := h.evaluate()
		writeHealthResponse(w, healthStatusCode(status), DetailedHealthResponse{
			Status: status,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		})
	})
}

// RegisterHealthEndpoints mounts the probe handlers on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func healthStatusCode(status string) int {
	if status == healthStatusOK {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeHealthResponse(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
