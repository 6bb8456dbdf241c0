package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultBreakerFailures = 5
	DefaultBreakerCooldown = 30 * time.Second

	maxBodySize = 4 << 20 // 4MB
)

// Client talks to the storefront REST backend. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	validate   *validator.Validate

	breakerFailures uint32
	breakerCooldown time.Duration
	breaker         *gobreaker.CircuitBreaker[*response]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every single call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logger.OrNop(l) }
}

// WithBreaker opens the breaker after failures consecutive network or 5xx failures
// and keeps it open for cooldown.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *Client) {
		c.breakerFailures = failures
		c.breakerCooldown = cooldown
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout:         DefaultTimeout,
		logger:          zap.NewNop(),
		validate:        apperr.NewValidator(),
		breakerFailures: DefaultBreakerFailures,
		breakerCooldown: DefaultBreakerCooldown,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = c.newBreaker()

	return c, nil
}

func (c *Client) newBreaker() *gobreaker.CircuitBreaker[*response] {
	failures := c.breakerFailures
	if failures == 0 {
		failures = DefaultBreakerFailures
	}
	return gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:    "storefront-api",
		Timeout: c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// only transport failures and 5xx count against the backend
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *apperr.APIError
			return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

type request struct {
	method  string
	path    string
	token   string
	body    any
	headers map[string]string
}

type response struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, req request) (*response, error) {
	op := req.method + " " + req.path

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", requestID)
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*response, error) {
		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		r := &response{status: httpResp.StatusCode, body: data}
		if r.status < 200 || r.status > 299 {
			return r, newAPIError(r)
		}
		return r, nil
	})
	fields := []zap.Field{
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.String("request_id", requestID),
		zap.Duration("took", time.Since(start)),
	}

	if err != nil {
		var apiErr *apperr.APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("api call rejected", append(fields, zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))...)
			return nil, apiErr
		}
		c.logger.Warn("api call failed", append(fields, zap.Error(err))...)
		return nil, &apperr.NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("api call", append(fields, zap.Int("status", resp.status))...)
	return resp, nil
}

// newAPIError takes the human-readable message from the usual error body shapes.
func newAPIError(r *response) *apperr.APIError {
	apiErr := &apperr.APIError{Status: r.status, Message: http.StatusText(r.status)}
	if !gjson.ValidBytes(r.body) {
		return apiErr
	}
	for _, path := range []string{"message", "error.message", "error"} {
		res := gjson.GetBytes(r.body, path)
		if res.Type == gjson.String && res.Str != "" {
			apiErr.Message = res.Str
			break
		}
	}
	return apiErr
}

func decodeJSON(op string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) check(op string, v any) error {
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrInvalidResponse, err)
	}
	return nil
}

// BreakerState exposes the current circuit state, mostly for diagnostics.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
