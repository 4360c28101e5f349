// Package nango is the HTTP client for the external auth proxy. One call
// per tool invocation fetches the connection's current Google credential;
// refresh, token storage and OAuth consent are entirely the proxy's
// concern, so nothing is cached or persisted here.
package nango

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/calbridge/calbridge/internal/config"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
	"github.com/calbridge/calbridge/internal/result"
)

// Credentials is the short-lived bearer credential the proxy returns.
type Credentials struct {
	// AccessToken authenticates against the calendar provider.
	AccessToken string
	// ProviderBaseURL overrides the provider endpoint when the proxy
	// fronts a non-default deployment. Empty means the provider default.
	ProviderBaseURL string
	// ExpiresAt is informational only; the proxy refreshes ahead of
	// expiry when asked with refresh_token=true.
	ExpiresAt time.Time
}

// Client fetches connection credentials from a Nango deployment.
type Client struct {
	baseURL       string
	secretKey     string
	connectionID  string
	integrationID string
	httpClient    *http.Client
	logger        *slog.Logger
	metrics       *instrumentation.Metrics
}

// New builds a client from the loaded configuration. The HTTP client has
// no timeout of its own; the per-operation context deadline bounds it.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL:       cfg.NangoBaseURL,
		secretKey:     cfg.NangoSecretKey,
		connectionID:  cfg.NangoConnectionID,
		integrationID: cfg.NangoIntegrationID,
		httpClient:    &http.Client{},
		logger:        logging.WithService(slog.Default(), instrumentation.ServiceAuthProxy),
	}
}

// SetMetrics attaches a metrics recorder; every credential fetch is then
// counted and timed. Safe to leave unset.
func (c *Client) SetMetrics(metrics *instrumentation.Metrics) {
	c.metrics = metrics
}

// connectionResponse is the subset of the proxy's connection document the
// gateway needs.
type connectionResponse struct {
	ProviderBaseURL string `json:"provider_base_url"`
	Credentials     struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   string `json:"expires_at"`
	} `json:"credentials"`
}

// Credentials fetches a currently valid access token for the configured
// connection. Called once per tool invocation; token lifetime is the
// proxy's problem.
func (c *Client) Credentials(ctx context.Context) (creds *Credentials, err error) {
	ctx, span := instrumentation.StartSpan(ctx, "auth_proxy.credentials")
	defer func() { instrumentation.EndSpan(span, err) }()

	start := time.Now()
	defer func() {
		if c.metrics == nil {
			return
		}
		outcome := instrumentation.CredentialFetchSuccess
		if err != nil {
			outcome = instrumentation.CredentialFetchFailure
		}
		c.metrics.RecordCredentialFetch(ctx, outcome, time.Since(start))
	}()

	endpoint := fmt.Sprintf("%s/connection/%s", c.baseURL, url.PathEscape(c.connectionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, result.Errorf(result.KindAuth, "building auth proxy request: %w", err)
	}
	q := req.URL.Query()
	q.Set("provider_config_key", c.integrationID)
	q.Set("refresh_token", "true")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, result.Errorf(result.KindAuth, "reaching auth proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, result.Errorf(result.KindAuth, "auth proxy returned HTTP %d", resp.StatusCode)
	}

	var payload connectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, result.Errorf(result.KindAuth, "decoding auth proxy response: %w", err)
	}
	if payload.Credentials.AccessToken == "" {
		return nil, result.Errorf(result.KindAuth, "auth proxy response carries no access token")
	}

	creds = &Credentials{
		AccessToken:     payload.Credentials.AccessToken,
		ProviderBaseURL: payload.ProviderBaseURL,
	}
	// expires_at is informational; a shape we don't recognize is not worth
	// failing the call over.
	if raw := payload.Credentials.ExpiresAt; raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			creds.ExpiresAt = ts
		}
	}

	c.logger.DebugContext(ctx, "fetched connection credentials",
		slog.String("connection_id", c.connectionID),
		slog.String("token", logging.SanitizeToken(creds.AccessToken)),
		slog.Time("expires_at", creds.ExpiresAt))

	return creds, nil
}
