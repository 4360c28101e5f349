package cmd

import (
	"strings"
	"testing"

	"github.com/calbridge/calbridge/internal/result"
	"github.com/calbridge/calbridge/internal/server"
)

func TestNewServeCmdDefaults(t *testing.T) {
	cmd := newServeCmd()

	tests := []struct {
		flag string
		def  string
	}{
		{"transport", "stdio"},
		{"http-addr", ":8080"},
		{"read-only", "false"},
		{"disable-streaming", "false"},
		{"metrics-enabled", "true"},
		{"metrics-addr", ":9090"},
		{"debug", "false"},
	}

	for _, tt := range tests {
		f := cmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("flag %q not registered", tt.flag)
			continue
		}
		if f.DefValue != tt.def {
			t.Errorf("flag %q default = %q, want %q", tt.flag, f.DefValue, tt.def)
		}
	}
}

func TestRunServeRequiresConfig(t *testing.T) {
	// Blank out every required setting regardless of the test environment.
	t.Setenv("NANGO_BASE_URL", "")
	t.Setenv("NANGO_SECRET_KEY", "")
	t.Setenv("NANGO_CONNECTION_ID", "")
	t.Setenv("NANGO_INTEGRATION_ID", "")

	err := runServe("stdio", false, ":8080", false, false, MetricsConfig{})
	if err == nil {
		t.Fatal("expected startup to fail without the auth proxy configuration")
	}
	if kind := result.Classify(err).Kind; kind != result.KindConfig {
		t.Errorf("error kind = %q, want %q", kind, result.KindConfig)
	}
	if !strings.Contains(err.Error(), "NANGO_") {
		t.Errorf("error should name the missing setting, got %q", err.Error())
	}
}

func TestApplyMetricsEnv(t *testing.T) {
	tests := []struct {
		name    string
		flags   MetricsConfig
		enabled string
		addr    string
		want    MetricsConfig
	}{
		{
			name:  "flags untouched without env",
			flags: MetricsConfig{Enabled: true, Addr: ":9090"},
			want:  MetricsConfig{Enabled: true, Addr: ":9090"},
		},
		{
			name:    "env enables when flag is off",
			flags:   MetricsConfig{Enabled: false, Addr: ":9090"},
			enabled: "true",
			want:    MetricsConfig{Enabled: true, Addr: ":9090"},
		},
		{
			name:  "env addr overrides the default",
			flags: MetricsConfig{Enabled: true, Addr: server.DefaultMetricsAddr},
			addr:  ":9999",
			want:  MetricsConfig{Enabled: true, Addr: ":9999"},
		},
		{
			name:  "explicit flag addr wins over env",
			flags: MetricsConfig{Enabled: true, Addr: ":7070"},
			addr:  ":9999",
			want:  MetricsConfig{Enabled: true, Addr: ":7070"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("METRICS_ENABLED", tt.enabled)
			t.Setenv("METRICS_ADDR", tt.addr)
			if got := applyMetricsEnv(tt.flags); got != tt.want {
				t.Errorf("applyMetricsEnv(%+v) = %+v, want %+v", tt.flags, got, tt.want)
			}
		})
	}
}

func TestRunServeRejectsUnknownTransport(t *testing.T) {
	t.Setenv("NANGO_BASE_URL", "https://nango.example.com")
	t.Setenv("NANGO_SECRET_KEY", "secret")
	t.Setenv("NANGO_CONNECTION_ID", "conn-1")
	t.Setenv("NANGO_INTEGRATION_ID", "google-calendar")
	// Keep the test free of exporter and listener side effects.
	t.Setenv("INSTRUMENTATION_ENABLED", "false")

	err := runServe("websocket", false, ":8080", false, false, MetricsConfig{})
	if err == nil {
		t.Fatal("expected unknown transport to fail")
	}
	if !strings.Contains(err.Error(), "unsupported transport type") {
		t.Errorf("unexpected error: %v", err)
	}
}
