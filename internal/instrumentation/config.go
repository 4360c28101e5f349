package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
)

// Config drives the OpenTelemetry setup. DefaultConfig builds one from
// environment variables; zero values are not usable directly because
// exporter names would be empty.
type Config struct {
	// ServiceName identifies the service in telemetry (default: calbridge).
	ServiceName string

	// ServiceVersion is stamped on every resource.
	ServiceVersion string

	// ServiceInstanceID distinguishes replicas. Defaults to the hostname,
	// which under Kubernetes is the pod name.
	ServiceInstanceID string

	// K8sNamespace and K8sPodName enrich the resource when running in a
	// cluster. Both are optional.
	K8sNamespace string
	K8sPodName   string

	// Enabled turns instrumentation on or off as a whole. When false the
	// provider hands out no-op recorders (default: true).
	Enabled bool

	// MetricsExporter selects how metrics leave the process:
	// "prometheus", "otlp", or "stdout" (default: "prometheus").
	MetricsExporter string

	// TracingExporter selects how spans leave the process:
	// "otlp", "stdout", or "none" (default: "none").
	TracingExporter string

	// OTLPEndpoint is the collector endpoint without protocol prefix,
	// e.g. "localhost:4318". Required when either exporter is "otlp".
	OTLPEndpoint string

	// OTLPInsecure disables TLS on OTLP export. Spans and metrics carry
	// operational metadata, so plain HTTP is for local development only.
	OTLPInsecure bool

	// TraceSamplingRate is the head sampling ratio, 0.0 to 1.0 (default: 0.1).
	TraceSamplingRate float64

	// DetailedLabels admits high-cardinality metric labels such as full
	// calendar IDs. Calendar IDs are email addresses; leave this off in
	// production.
	DetailedLabels bool

	// AuditLogging configures the audit trail written alongside metrics.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the audit trail of tool invocations.
type AuditLoggingConfig struct {
	// Enabled turns the audit trail on or off (default: true).
	Enabled bool

	// IncludePII controls whether full calendar IDs appear in audit
	// records. Off by default: records then carry only anonymized
	// identifiers. Turn it on only when the log destination is locked
	// down, since calendar IDs are email addresses.
	IncludePII bool

	// LogLevel is the slog level audit records are emitted at
	// (default: "info"). Records are emitted regardless of the handler's
	// threshold as long as the handler admits this level.
	LogLevel string
}

// DefaultConfig reads instrumentation settings from the environment,
// falling back to defaults suitable for a production deployment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       envString("OTEL_SERVICE_NAME", "calbridge"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: envString("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:      envString("K8S_NAMESPACE", envString("POD_NAMESPACE", "")),
		K8sPodName:        envString("K8S_POD_NAME", envString("HOSTNAME", "")),
		Enabled:           envBool("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: envFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    envBool("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envBool("AUDIT_LOGGING_ENABLED", true),
			IncludePII: envBool("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   envString("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate reports the first configuration problem found. NewProvider calls
// it before constructing any exporter.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate %f is outside [0.0, 1.0]", c.TraceSamplingRate)
	}

	metricsExporters := []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q (want prometheus, otlp or stdout)", c.MetricsExporter)
	}

	tracingExporters := []string{ExporterOTLP, ExporterStdout, ExporterNone}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q (want otlp, stdout or none)", c.TracingExporter)
	}

	if c.MetricsExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required for the otlp metrics exporter")
	}
	if c.TracingExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required for the otlp tracing exporter")
	}

	return nil
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// Label values shared across metrics and audit records.
const (
	// Outcome of a tool invocation or provider operation.
	StatusSuccess = "success"
	StatusError   = "error"

	// Outcome of a credential fetch against the auth proxy.
	CredentialFetchSuccess = "success"
	CredentialFetchFailure = "failure"

	// Services a tool call touches.
	ServiceCalendar  = "calendar"
	ServiceAuthProxy = "auth_proxy"

	// Exporter names accepted by Config.
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
