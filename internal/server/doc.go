// Package server provides the MCP server context, transports and
// operational endpoints.
//
// # Key Components
//
// ServerContext carries the shared state of a server instance: the loaded
// configuration, the calendar gateway and the instrumentation hooks the
// tool handlers report through. The gateway is built lazily from
// configuration on first use; tests inject one backed by a mock provider
// API instead.
//
// HTTPServer serves the MCP streamable HTTP transport on /mcp together
// with the Kubernetes health endpoints. It terminates no end-user
// authentication: Google credentials are fetched per operation from the
// auth proxy, and access to the endpoint is governed by the deployment's
// own network controls.
//
// MetricsServer exposes Prometheus metrics on a dedicated port, keeping
// operational data off the application listener.
//
// HealthChecker implements /healthz, /readyz and /healthz/detailed.
// Liveness only confirms the process runs; readiness additionally requires
// the configuration to be loaded and the context not to be shutting down.
package server
