// Package api is the REST client for the sensor monitoring backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ziris-labs/ziris/internal/errors"
	"github.com/ziris-labs/ziris/internal/logger"
	"github.com/ziris-labs/ziris/internal/sensor"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Client talks to the monitoring API with a bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger

	mu           sync.RWMutex
	token        string
	refreshToken string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logger.NewEnvLogger("[api]"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Login exchanges credentials for tokens and starts using the access token.
func (c *Client) Login(ctx context.Context, username, password string) (sensor.TokenResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp sensor.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return sensor.TokenResponse{}, err
	}
	if resp.AccessToken == "" {
		return sensor.TokenResponse{}, errors.New(errors.ErrAuth,
			"Login returned no access token",
			"Check the API URL points at the monitoring backend")
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.refreshToken = resp.RefreshToken
	c.mu.Unlock()
	return resp, nil
}

// Logout revokes the refresh token and forgets both tokens.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.RLock()
	rt := c.refreshToken
	c.mu.RUnlock()

	var err error
	if rt != "" {
		err = c.do(ctx, http.MethodPost, "/auth/logout", nil, map[string]string{"refresh_token": rt}, nil)
	}

	c.mu.Lock()
	c.token = ""
	c.refreshToken = ""
	c.mu.Unlock()
	return err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (sensor.User, error) {
	var u sensor.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &u)
	return u, err
}

// Summary fetches the dashboard summary.
func (c *Client) Summary(ctx context.Context) (*sensor.Summary, error) {
	var s sensor.Summary
	if err := c.do(ctx, http.MethodGet, "/dashboard/data", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Recommendations fetches the current anomaly recommendations.
func (c *Client) Recommendations(ctx context.Context) ([]sensor.Recommendation, error) {
	var recs []sensor.Recommendation
	if err := c.do(ctx, http.MethodGet, "/sensor/recommendations", nil, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ModelMetrics fetches model accuracy for a decision rule.
func (c *Client) ModelMetrics(ctx context.Context, rule sensor.DecisionRule) (*sensor.ModelMetrics, error) {
	q := url.Values{}
	if rule != "" {
		q.Set("rule", string(rule))
	}
	var m sensor.ModelMetrics
	if err := c.do(ctx, http.MethodGet, "/lstm/metrics", q, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Thresholds reads the persisted thresholds.
func (c *Client) Thresholds(ctx context.Context) (sensor.Thresholds, error) {
	var th sensor.Thresholds
	err := c.do(ctx, http.MethodGet, "/thresholds", nil, nil, &th)
	return th, err
}

// SaveThresholds writes the full threshold object and returns what the
// server stored.
func (c *Client) SaveThresholds(ctx context.Context, th sensor.Thresholds) (sensor.Thresholds, error) {
	var saved sensor.Thresholds
	if err := c.do(ctx, http.MethodPost, "/thresholds", nil, th, &saved); err != nil {
		return sensor.Thresholds{}, errors.WrapWithCode(err, errors.ErrPersist,
			"Failed to save thresholds",
			"Local values were kept; reload thresholds to resync with the server")
	}
	return saved, nil
}

// SuggestThresholds returns the raw suggestion object. Values are left
// undecoded so callers can fall back per metric on non-numeric entries.
func (c *Client) SuggestThresholds(ctx context.Context) (map[string]any, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodGet, "/thresholds/suggest", nil, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Retrain triggers a synchronous model retrain and returns the server status.
func (c *Client) Retrain(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/retrain-lstm", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Seed inserts n synthetic sensor rows and returns how many were inserted.
func (c *Client) Seed(ctx context.Context, n int) (int, error) {
	q := url.Values{"n": {strconv.Itoa(n)}}
	var resp struct {
		Inserted int `json:"inserted"`
	}
	if err := c.do(ctx, http.MethodPost, "/dev/seed", q, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Inserted, nil
}

// JobStart is returned when a background job is queued.
type JobStart struct {
	JobID  string           `json:"job_id"`
	Status sensor.JobStatus `json:"status"`
}

// Jobs lists background jobs.
func (c *Client) Jobs(ctx context.Context) ([]sensor.JobSummary, error) {
	var jobs []sensor.JobSummary
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Job fetches one job.
func (c *Client) Job(ctx context.Context, id string) (sensor.Job, error) {
	var j sensor.Job
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, nil, &j)
	return j, err
}

// StartSeedJob queues a background seed of n rows.
func (c *Client) StartSeedJob(ctx context.Context, n int) (JobStart, error) {
	q := url.Values{"n": {strconv.Itoa(n)}}
	var js JobStart
	err := c.do(ctx, http.MethodPost, "/jobs/seed", q, nil, &js)
	return js, err
}

// StartRetrainJob queues a background retrain.
func (c *Client) StartRetrainJob(ctx context.Context) (JobStart, error) {
	var js JobStart
	err := c.do(ctx, http.MethodPost, "/jobs/retrain", nil, nil, &js)
	return js, err
}

// PushURL builds the websocket URL for the notification channel.
func (c *Client) PushURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid API URL %q", c.baseURL),
			"Set api.url to an http:// or https:// address")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if path == "" {
		path = "/ws/notifications"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	q := u.Query()
	q.Set("token", c.Token())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type errorBody struct {
	Detail any `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody, respBody any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrDecode, "Failed to encode request for "+path, "")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid request %s %s", method, path),
			"Check api.url in your config")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()
	c.log.Debug("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= 400 {
		return statusError(method, path, resp)
	}
	if respBody == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return errors.WrapWithCode(err, errors.ErrDecode,
			fmt.Sprintf("Unexpected response from %s", path),
			"Check that api.url points at the monitoring backend")
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Detail != nil {
		detail = fmt.Sprint(eb.Detail)
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	cause := fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.WrapWithCode(cause, errors.ErrAuth,
			fmt.Sprintf("Not authorized for %s %s", method, path),
			"Run 'ziris login' or set api.token / ZIRIS_API_TOKEN")
	default:
		return errors.WrapWithCode(cause, errors.ErrNetwork,
			fmt.Sprintf("%s %s failed", method, path), "")
	}
}
