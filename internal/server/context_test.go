package server

import (
	"context"
	"testing"
	"time"

	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/config"
	"github.com/calbridge/calbridge/internal/instrumentation"
)

func testConfig() *config.Config {
	return &config.Config{
		NangoBaseURL:       "http://127.0.0.1:0",
		NangoSecretKey:     "test-secret",
		NangoConnectionID:  "conn-1",
		NangoIntegrationID: "google-calendar",
		TimezoneName:       "UTC",
		Timezone:           time.UTC,
		RequestTimeout:     5 * time.Second,
	}
}

func TestNewServerContext(t *testing.T) {
	sc := NewServerContext(context.Background())
	if sc == nil {
		t.Fatal("NewServerContext() returned nil")
	}
	if sc.Context() == nil {
		t.Error("Context() returned nil")
	}
	if sc.IsShutdown() {
		t.Error("IsShutdown() = true for a fresh context")
	}
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := NewServerContext(context.Background())

	if err := sc.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("IsShutdown() = false after Shutdown()")
	}

	select {
	case <-sc.Context().Done():
	default:
		t.Error("Context() not canceled after Shutdown()")
	}

	// Shutdown is idempotent
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestServerContext_GatewayFromConfig(t *testing.T) {
	sc := NewServerContext(context.Background())
	sc.SetConfig(testConfig())

	gateway, err := sc.Gateway()
	if err != nil {
		t.Fatalf("Gateway() error = %v", err)
	}
	if gateway == nil {
		t.Fatal("Gateway() returned nil")
	}

	// Second call returns the cached instance
	again, err := sc.Gateway()
	if err != nil {
		t.Fatalf("second Gateway() error = %v", err)
	}
	if again != gateway {
		t.Error("Gateway() did not return the cached instance")
	}
}

func TestServerContext_GatewayWithoutConfig(t *testing.T) {
	// With no auth proxy settings in the environment, building the gateway
	// must fail rather than produce a half-configured client.
	t.Setenv(config.EnvNangoBaseURL, "")
	t.Setenv(config.EnvNangoSecretKey, "")
	t.Setenv(config.EnvNangoConnectionID, "")
	t.Setenv(config.EnvNangoIntegrationID, "")

	sc := NewServerContext(context.Background())
	if _, err := sc.Gateway(); err == nil {
		t.Error("Gateway() expected error without configuration")
	}
}

func TestServerContext_SetGateway(t *testing.T) {
	sc := NewServerContext(context.Background())

	injected := calendar.NewGateway(nil, &calendar.MockCredentialSource{}, calendar.MockFactory(&calendar.MockAPI{}))
	sc.SetGateway(injected)

	gateway, err := sc.Gateway()
	if err != nil {
		t.Fatalf("Gateway() error = %v", err)
	}
	if gateway != injected {
		t.Error("Gateway() did not return the injected gateway")
	}
}

func TestServerContext_Config(t *testing.T) {
	sc := NewServerContext(context.Background())

	if sc.Config() != nil {
		t.Error("Config() = non-nil before SetConfig()")
	}

	cfg := testConfig()
	sc.SetConfig(cfg)
	if sc.Config() != cfg {
		t.Error("Config() did not return the set config")
	}
}

func TestServerContext_Instrumentation(t *testing.T) {
	sc := NewServerContext(context.Background())

	if sc.Metrics() != nil {
		t.Error("Metrics() = non-nil before SetMetrics()")
	}
	if sc.AuditLogger() != nil {
		t.Error("AuditLogger() = non-nil before SetAuditLogger()")
	}

	metrics := &instrumentation.Metrics{}
	sc.SetMetrics(metrics)
	if sc.Metrics() != metrics {
		t.Error("Metrics() did not return the set recorder")
	}

	auditLogger := instrumentation.NewAuditLogger(nil)
	sc.SetAuditLogger(auditLogger)
	if sc.AuditLogger() != auditLogger {
		t.Error("AuditLogger() did not return the set logger")
	}
}

func TestServerContext_GatewayUsesMetricsWiring(t *testing.T) {
	// Setting metrics before the first Gateway() call must not break
	// construction; the auth proxy client picks up the recorder.
	sc := NewServerContext(context.Background())
	sc.SetConfig(testConfig())
	sc.SetMetrics(&instrumentation.Metrics{})

	if _, err := sc.Gateway(); err != nil {
		t.Fatalf("Gateway() error = %v", err)
	}
}
