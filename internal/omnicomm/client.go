// Package omnicomm implements the authenticated client for the upstream
// telematics provider API: token lifecycle, transparent re-authentication
// and the domain calls built on top of it.
package omnicomm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/fleetpulse-io/fleetpulse/internal/pkg/metrics"
	"github.com/fleetpulse-io/fleetpulse/pkg/log"
)

const (
	loginEndpoint     = "/auth/login"
	terminalsEndpoint = "/ls/api/v1/profile/terminals/list"
	vehiclesEndpoint  = "/ls/api/v1/profile/vehicles/list"
	stateEndpoint     = "/ls/api/v1/monitoring/vehicle/%s/state"
	reportEndpoint    = "/ls/api/v1/reports/build"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultTokenTTL = 55 * time.Minute
)

// Config carries the settings needed to construct a Client.
type Config struct {
	BaseURL  string
	Login    string
	Password string

	// Timeout applies to each individual HTTP call.
	Timeout time.Duration

	// TokenTTL is how long an issued token is reused before a fresh login.
	// Must stay under the provider's real token lifetime, which is assumed
	// but not guaranteed to be at least an hour.
	TokenTTL time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is an authenticated session against the provider API. It holds at
// most one valid credential at a time; all token reads and writes happen
// under mu, and a login in flight blocks every caller needing a token so
// the auth endpoint sees exactly one login per refresh.
type Client struct {
	baseURL  string
	login    string
	password string
	tokenTTL time.Duration

	httpc *http.Client
	lg    log.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewClient builds a Client from cfg. No network I/O happens here; the
// first call triggers the initial login.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid provider base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = defaultTokenTTL
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		login:    cfg.Login,
		password: cfg.Password,
		tokenTTL: ttl,
		httpc:    httpc,
		lg:       log.WithName("omnicomm"),
	}, nil
}

// ensureToken returns a token that is valid as of now, logging in if the
// cached one is missing or past its expiry margin. Safe for concurrent use:
// waiters blocked on the mutex re-check validity after acquiring it and
// skip the login another waiter already performed.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry) {
		return c.token, nil
	}
	if err := c.loginLocked(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

// forceRefresh discards the credential the caller found rejected and logs
// in again, unless a concurrent refresh already replaced it.
func (c *Client) forceRefresh(ctx context.Context, rejected string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.token != rejected && time.Now().Before(c.expiry) {
		return c.token, nil
	}
	c.token = ""
	if err := c.loginLocked(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

// loginLocked performs the login POST. Caller must hold mu.
func (c *Client) loginLocked(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"login":    c.login,
		"password": c.password,
	})
	if err != nil {
		return &AuthError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginEndpoint+"?jwt=1", bytes.NewReader(payload))
	if err != nil {
		return &AuthError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.LoginTotal.WithLabelValues("failure").Inc()
		return &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.LoginTotal.WithLabelValues("failure").Inc()
		return &AuthError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		metrics.LoginTotal.WithLabelValues("failure").Inc()
		return &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &auth); err != nil {
		metrics.LoginTotal.WithLabelValues("failure").Inc()
		return &AuthError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("login returned invalid JSON: %w", err)}
	}
	if auth.Token == "" {
		metrics.LoginTotal.WithLabelValues("failure").Inc()
		return &AuthError{Status: resp.StatusCode, Body: string(body), Err: fmt.Errorf("login response missing token")}
	}

	// The new credential fully replaces the old one.
	c.token = auth.Token
	c.expiry = time.Now().Add(c.tokenTTL)
	metrics.LoginTotal.WithLabelValues("success").Inc()
	c.lg.Debug("provider token refreshed", "expiry", c.expiry)
	return nil
}

// call executes one authenticated provider request. A 401 forces a single
// fresh login and exactly one retry; every other failure is final.
func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, method, endpoint, query, payload, token)
	if err != nil {
		return nil, &APIError{Err: err}
	}

	if status == http.StatusUnauthorized {
		// Credential rejected upstream (revoked, or expired ahead of our
		// margin). One fresh login, one retry, no further attempts.
		token, err = c.forceRefresh(ctx, token)
		if err != nil {
			return nil, err
		}
		status, body, err = c.do(ctx, method, endpoint, query, payload, token)
		if err != nil {
			return nil, &APIError{Err: err}
		}
	}

	if status < 200 || status >= 300 {
		return nil, &APIError{Status: status, Body: string(body)}
	}
	return body, nil
}

// do performs a single HTTP exchange and drains the response body.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload any, token string) (int, []byte, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "JWT "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.RequestTotal.WithLabelValues(method, "transport").Inc()
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RequestTotal.WithLabelValues(method, "transport").Inc()
		return 0, nil, err
	}

	metrics.RequestTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp.StatusCode, body, nil
}

// Request executes an authenticated call and returns the decoded JSON
// value, or the raw body as a string when the response is not JSON.
func (c *Client) Request(ctx context.Context, method, endpoint string, query url.Values, payload any) (any, error) {
	body, err := c.call(ctx, method, endpoint, query, payload)
	if err != nil {
		return nil, err
	}

	var v any
	if len(body) > 0 && json.Unmarshal(body, &v) == nil {
		return v, nil
	}
	return string(body), nil
}

// VehicleState fetches the current state of one vehicle/terminal.
func (c *Client) VehicleState(ctx context.Context, terminalID string) (*StateRecord, error) {
	body, err := c.call(ctx, http.MethodGet, fmt.Sprintf(stateEndpoint, url.PathEscape(terminalID)), nil, nil)
	if err != nil {
		return nil, err
	}

	var state StateRecord
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("decode state for terminal %s: %w", terminalID, err)
	}
	return &state, nil
}

// HistoryReport fetches the historical sensor report for the given vehicle
// set over the half-open window [from, to), expressed upstream as epoch
// seconds.
func (c *Client) HistoryReport(ctx context.Context, terminalIDs []string, from, to time.Time) (*ReportPayload, error) {
	body, err := c.call(ctx, http.MethodPost, reportEndpoint, nil, map[string]any{
		"vehicles": terminalIDs,
		"from":     from.Unix(),
		"to":       to.Unix(),
	})
	if err != nil {
		return nil, err
	}

	var payload ReportPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode history report: %w", err)
	}
	return &payload, nil
}

// Terminals lists the terminals visible to the account.
func (c *Client) Terminals(ctx context.Context) (any, error) {
	return c.Request(ctx, http.MethodGet, terminalsEndpoint, nil, nil)
}

// Vehicles lists the vehicles visible to the account.
func (c *Client) Vehicles(ctx context.Context) (any, error) {
	return c.Request(ctx, http.MethodGet, vehiclesEndpoint, nil, nil)
}

// Close releases the underlying transport. Call once at shutdown;
// operations after Close are undefined.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}
