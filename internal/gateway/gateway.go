// Package gateway is the single HTTP wrapper between the client engine and the
// Finch backend. It attaches the session credential to every request,
// classifies every failure into the client error taxonomy, and owns the one
// interception point that turns an invalid-credential response into an
// automatic logout.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/finch-bank/finchctl/internal/domain"
)

// Gateway wraps every outbound request to the backend.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu    sync.RWMutex
	token string

	hookMu         sync.Mutex
	onUnauthorized func()
}

// Options configures the gateway.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond enables outbound rate limiting when positive.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// New creates a gateway with a tuned HTTP transport.
func New(opts Options) *Gateway {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Gateway{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// SetToken installs the bearer credential attached to subsequent requests.
// Only the session store calls this.
func (g *Gateway) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
}

// ClearToken removes the bearer credential.
func (g *Gateway) ClearToken() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = ""
}

// Token returns the currently installed credential.
func (g *Gateway) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// OnUnauthorized registers the auto-logout hook. The gateway invokes it for
// every unauthorized response except requests flagged as login attempts.
func (g *Gateway) OnUnauthorized(fn func()) {
	g.hookMu.Lock()
	defer g.hookMu.Unlock()
	g.onUnauthorized = fn
}

type requestConfig struct {
	loginAttempt   bool
	idempotencyKey string
}

// RequestOption adjusts how a single request is executed.
type RequestOption func(*requestConfig)

// AsLoginAttempt marks the request as a credential submission. Unauthorized
// responses to it are surfaced to the caller instead of triggering the
// auto-logout hook.
func AsLoginAttempt() RequestOption {
	return func(c *requestConfig) { c.loginAttempt = true }
}

// WithIdempotencyKey attaches a client-generated idempotency key so a retried
// write cannot be applied twice server-side.
func WithIdempotencyKey(key string) RequestOption {
	return func(c *requestConfig) { c.idempotencyKey = key }
}

// Do executes one request and decodes a JSON response into out (which may be
// nil). Every failure is returned as a classified *domain.APIError.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body, out any, opts ...RequestOption) error {
	var cfg requestConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return domain.NewAPIError(domain.ErrKindNetwork, 0, "request cancelled while rate limited", err)
		}
	}

	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return domain.NewAPIError(domain.ErrKindUnknown, 0, "failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return domain.NewAPIError(domain.ErrKindUnknown, 0, "failed to create request", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", cfg.idempotencyKey)
	}
	if token := g.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Debug("request failed before a response was received",
			"method", method, "path", path, "error", err)
		return domain.NewAPIError(domain.ErrKindNetwork, 0, "no response from server", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.NewAPIError(domain.ErrKindUnknown, resp.StatusCode, "failed to decode response body", err)
		}
		return nil
	}

	apiErr := classify(resp)
	g.logger.Debug("request rejected",
		"method", method, "path", path,
		"status", resp.StatusCode, "kind", apiErr.Kind.String())

	if apiErr.Kind == domain.ErrKindUnauthorized && !cfg.loginAttempt {
		g.fireUnauthorized()
	}

	return apiErr
}

// Get is a convenience for JSON GET requests.
func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post is a convenience for JSON POST requests.
func (g *Gateway) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return g.Do(ctx, http.MethodPost, path, nil, body, out, opts...)
}

func (g *Gateway) fireUnauthorized() {
	g.hookMu.Lock()
	fn := g.onUnauthorized
	g.hookMu.Unlock()
	if fn != nil {
		fn()
	}
}

var _ domain.CredentialSink = (*Gateway)(nil)

// errorBody is the backend's failure envelope.
type errorBody struct {
	Detail string              `json:"detail"`
	Errors []domain.FieldError `json:"errors"`
}

// classify derives the error taxonomy bucket from status code plus body shape.
func classify(resp *http.Response) *domain.APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var parsed errorBody
	_ = json.Unmarshal(raw, &parsed)

	message := parsed.Detail
	if message == "" && len(parsed.Errors) > 0 {
		message = parsed.Errors[0].Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if message == "" {
			message = "credential invalid or expired"
		}
		return domain.NewAPIError(domain.ErrKindUnauthorized, resp.StatusCode, message, nil)
	case http.StatusForbidden:
		if message == "" {
			message = "operation not permitted"
		}
		return domain.NewAPIError(domain.ErrKindForbidden, resp.StatusCode, message, nil)
	case http.StatusNotFound:
		if message == "" {
			message = "resource not found"
		}
		return domain.NewAPIError(domain.ErrKindNotFound, resp.StatusCode, message, nil)
	case http.StatusUnprocessableEntity:
		apiErr := domain.NewAPIError(domain.ErrKindValidation, resp.StatusCode, message, nil)
		apiErr.Fields = parsed.Errors
		return apiErr
	default:
		// A 400 carrying the field-error envelope still counts as validation.
		if resp.StatusCode == http.StatusBadRequest && len(parsed.Errors) > 0 {
			apiErr := domain.NewAPIError(domain.ErrKindValidation, resp.StatusCode, message, nil)
			apiErr.Fields = parsed.Errors
			return apiErr
		}
		if message == "" {
			message = fmt.Sprintf("server returned status %d", resp.StatusCode)
		}
		return domain.NewAPIError(domain.ErrKindUnknown, resp.StatusCode, message, nil)
	}
}
