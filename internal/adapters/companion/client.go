// Package companion is an HTTP client for the analysis service that keeps
// the data files in memory and renders graphs from them.
package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ies4ops/internal/ports"
)

const (
	defaultPingTimeout    = 5 * time.Second
	defaultRequestTimeout = 60 * time.Second

	// The service is local and single-threaded; keep bursts small
	defaultRPS   = 4
	defaultBurst = 4

	// analyze responses embed the whole plotly figure
	maxResponseBytes = 64 << 20

	statusSuccess = "success"
	defaultLayout = "spring"
	userAgent     = "ies4ops/1.0"
)

// Client implements ports.CompanionService
type Client struct {
	baseURL *url.URL
	short   *http.Client
	long    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeouts sets the liveness and long-request timeouts
func WithTimeouts(ping, request time.Duration) Option {
	return func(c *Client) {
		if ping > 0 {
			c.short.Timeout = ping
		}
		if request > 0 {
			c.long.Timeout = request
		}
	}
}

// WithTransport replaces the HTTP transport of both clients
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.short.Transport = rt
		c.long.Transport = rt
	}
}

// WithRateLimit sets the outbound request pacing
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the service at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid service URL %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q: expected http(s)://host[:port]", baseURL)
	}

	c := &Client{
		baseURL: u,
		short:   &http.Client{Timeout: defaultPingTimeout},
		long:    &http.Client{Timeout: defaultRequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Ping checks that the service answers /api/databases
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", c.short, http.MethodGet, "/api/databases", nil, nil, nil)
}

// Databases lists the databases the service knows and has loaded
func (c *Client) Databases(ctx context.Context) (*ports.DatabaseList, error) {
	var out ports.DatabaseList
	if err := c.do(ctx, "databases", c.short, http.MethodGet, "/api/databases", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Load asks the service to load a database
func (c *Client) Load(ctx context.Context, database string) (*ports.LoadResult, error) {
	var out ports.LoadResult
	body := map[string]string{"database_name": database}
	if err := c.do(ctx, "load", c.long, http.MethodPost, "/api/load_database", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForceReload makes the service drop its cached copy and re-read the file
func (c *Client) ForceReload(ctx context.Context, database string) (*ports.LoadResult, error) {
	var out ports.LoadResult
	body := map[string]string{"database_name": database}
	if err := c.do(ctx, "reload", c.long, http.MethodPost, "/api/force_reload_database", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze rebuilds the service's graph for a database
func (c *Client) Analyze(ctx context.Context, req ports.AnalyzeRequest) (*ports.AnalyzeResult, error) {
	if req.Layout == "" {
		req.Layout = defaultLayout
	}
	if req.Filters == nil {
		req.Filters = map[string]any{}
	}

	var out ports.AnalyzeResult
	if err := c.do(ctx, "analyze", c.long, http.MethodPost, "/api/analyze", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FileStatus compares the service's copy of a database with the file
func (c *Client) FileStatus(ctx context.Context, database string) (*ports.FileStatus, error) {
	var out ports.FileStatus
	query := url.Values{"database": {database}}
	if err := c.do(ctx, "file status", c.long, http.MethodGet, "/api/check_file_status", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report fetches the comprehensive report, forcing a reload first
func (c *Client) Report(ctx context.Context, databases []string) (*ports.Report, error) {
	query := url.Values{"force_reload": {"true"}}
	for _, db := range databases {
		query.Add("databases", db)
	}

	var out ports.Report
	if err := c.do(ctx, "report", c.long, http.MethodGet, "/api/comprehensive_report", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggestions fetches filter suggestions, optionally for one database
func (c *Client) Suggestions(ctx context.Context, database string) (*ports.Suggestions, error) {
	query := url.Values{}
	if database != "" {
		query.Set("database", database)
	}

	var out ports.Suggestions
	if err := c.do(ctx, "suggestions", c.long, http.MethodGet, "/api/filter_suggestions", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Entity fetches one record from the service's in-memory copy
func (c *Client) Entity(ctx context.Context, database, id string) (json.RawMessage, error) {
	var out struct {
		Entity json.RawMessage `json:"entity"`
	}
	query := url.Values{"database": {database}}
	if err := c.do(ctx, "entity", c.long, http.MethodGet, "/api/entity/"+url.PathEscape(id), query, nil, &out); err != nil {
		return nil, err
	}
	return out.Entity, nil
}

// envelope is the part every response shares
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, op string, hc *http.Client, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &ServiceError{Op: op, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &ServiceError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &ServiceError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("companion request", "op", op, "method", method, "url", u.String())
	start := time.Now()

	resp, err := hc.Do(req)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("companion response", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	var env envelope
	envErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Status != statusSuccess {
		se := &ServiceError{Op: op, StatusCode: resp.StatusCode, Status: env.Status, Message: env.Message}
		if envErr != nil {
			se.Err = fmt.Errorf("parse response: %w", envErr)
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Status: env.Status, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}

// IsUnavailable reports whether err means the service could not be reached
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
