package instrumentation

import (
	"context"
	"strings"
	"testing"
	"time"
)

// newEnabledProvider builds a provider with the given exporters and
// registers its shutdown as test cleanup.
func newEnabledProvider(t *testing.T, metricsExporter, tracingExporter string) *Provider {
	t.Helper()

	provider, err := NewProvider(context.Background(), Config{
		ServiceName:     "calbridge-test",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: metricsExporter,
		TracingExporter: tracingExporter,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	})

	return provider
}

func TestNewProvider_DisabledNoop(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName: "calbridge-test",
		Enabled:     false,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if provider.Enabled() {
		t.Error("Enabled() = true for a disabled provider")
	}
	if provider.Metrics() == nil {
		t.Error("Metrics() = nil; disabled provider must hand out a no-op recorder")
	}
	if provider.Tracer("calbridge-test") == nil {
		t.Error("Tracer() = nil; disabled provider must hand out a no-op tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v for a disabled provider", err)
	}
}

func TestNewProvider_Prometheus(t *testing.T) {
	provider := newEnabledProvider(t, ExporterPrometheus, ExporterNone)

	if !provider.Enabled() {
		t.Error("Enabled() = false, want true")
	}
	if provider.Metrics() == nil {
		t.Error("Metrics() = nil, want recorder")
	}
	if provider.Tracer("calbridge-test") == nil {
		t.Error("Tracer() = nil, want tracer")
	}
}

func TestNewProvider_Stdout(t *testing.T) {
	// Stdout exporters emit telemetry on shutdown; harmless in tests.
	provider := newEnabledProvider(t, ExporterStdout, ExporterStdout)

	if !provider.Enabled() {
		t.Error("Enabled() = false, want true")
	}
	if provider.Metrics() == nil {
		t.Error("Metrics() = nil, want recorder")
	}
}

func TestNewProvider_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "unknown metrics exporter",
			cfg: Config{
				Enabled:         true,
				MetricsExporter: "graphite",
				TracingExporter: ExporterNone,
			},
			wantErr: "invalid metrics exporter",
		},
		{
			name: "unknown tracing exporter",
			cfg: Config{
				Enabled:         true,
				MetricsExporter: ExporterPrometheus,
				TracingExporter: "zipkin",
			},
			wantErr: "invalid tracing exporter",
		},
		{
			name: "otlp tracing needs an endpoint",
			cfg: Config{
				Enabled:         true,
				MetricsExporter: ExporterPrometheus,
				TracingExporter: ExporterOTLP,
			},
			wantErr: "OTLP endpoint is required",
		},
		{
			name: "otlp metrics needs an endpoint",
			cfg: Config{
				Enabled:         true,
				MetricsExporter: ExporterOTLP,
				TracingExporter: ExporterNone,
			},
			wantErr: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ServiceName = "calbridge-test"

			_, err := NewProvider(context.Background(), tt.cfg)
			if err == nil {
				t.Fatalf("NewProvider() = nil error, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewProvider() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestProvider_CleanShutdown(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:     "calbridge-test",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() returned %v", err)
	}
}
