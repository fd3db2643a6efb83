// Package gateway is the single chokepoint for calls to the LMS API. It
// attaches the session's bearer token, normalizes every failure into an
// APIError and announces 401 responses to its subscribers before returning.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/lucifer-699/EduCourseFrontend/pkg/logger"
	"github.com/lucifer-699/EduCourseFrontend/pkg/middleware"
)

const (
	// DefaultBaseURL is where the LMS API listens in development.
	DefaultBaseURL = "http://localhost:8449"

	maxResponseBytes = 10 << 20
	tracerName       = "github.com/lucifer-699/EduCourseFrontend/internal/gateway"
)

// TokenSource yields the bearer token for the session bound to ctx. An empty
// token means the caller is anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// UnauthorizedFunc is called synchronously for every 401 response, before
// the error is returned to the caller. ctx is the context of the failed call.
type UnauthorizedFunc func(ctx context.Context, apiErr *APIError)

// Config holds gateway configuration.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxConnsPerHost int
	// Breaker enables the circuit breaker when non-nil.
	Breaker *BreakerConfig
}

// DefaultConfig returns the development defaults with the breaker enabled.
func DefaultConfig() Config {
	b := DefaultBreakerConfig()
	return Config{
		BaseURL:         DefaultBaseURL,
		Timeout:         15 * time.Second,
		MaxConnsPerHost: 100,
		Breaker:         &b,
	}
}

type subscriber struct {
	id int
	fn UnauthorizedFunc
}

// Client performs JSON calls against the LMS API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     *slog.Logger
	propagator propagation.TextMapPropagator

	mu     sync.RWMutex
	subs   []subscriber
	nextID int
}

// New creates a gateway client. tokens may be nil for a client that never
// authenticates.
func New(cfg Config, tokens TokenSource, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 100
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		tokens:     tokens,
		logger:     logger,
		propagator: otel.GetTextMapPropagator(),
	}
	if cfg.Breaker != nil {
		c.breaker = newBreaker(*cfg.Breaker, logger)
	}
	return c
}

// OnUnauthorized subscribes fn to 401 responses and returns a function that
// removes the subscription.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// URL joins the base URL and a relative path with exactly one slash.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// BreakerState reports the circuit breaker state; closed when disabled.
func (c *Client) BreakerState() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping lms api: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// Send performs one call. body, when non-nil, is sent as JSON; a 2xx body is
// decoded into out when out is non-nil. Failures are *APIError, except a
// canceled ctx, which returns the wrapped context error.
func (c *Client) Send(ctx context.Context, method, path string, body, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("lms api %s %s: %w", method, path, err)
	}

	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "lms-api "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPMethod(method),
			attribute.String("lms.path", path),
		),
	)
	defer span.End()

	outcome, err := c.send(ctx, method, path, body, out)

	upstreamRequests.WithLabelValues(method, outcome).Inc()
	upstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if apiErr, ok := AsAPIError(err); ok {
		span.SetAttributes(semconv.HTTPStatusCode(apiErr.Status))
		if apiErr.Status == 0 || apiErr.Status >= 500 {
			span.SetStatus(codes.Error, apiErr.Message)
		}
	} else if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) (string, error) {
	l := logger.FromContext(ctx)

	token, err := c.credential(ctx)
	if err != nil {
		return outcomeStore, err
	}

	req, err := c.newRequest(ctx, method, path, body, token)
	if err != nil {
		return outcomeEncode, err
	}

	resp, err := c.roundTrip(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcomeCanceled, fmt.Errorf("lms api %s %s: %w", method, path, ctxErr)
		}
		if isBreakerRejection(err) {
			return outcomeOpen, &APIError{Status: 0, Message: MsgUnavailable, Method: method, Path: path, Err: err}
		}
		l.WarnContext(ctx, "lms api unreachable",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return outcomeNetwork, &APIError{Status: 0, Message: MsgNetwork, Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	outcome := outcomeForStatus(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := c.responseError(ctx, method, path, resp, raw)
		apiErr.Credential = token
		if resp.StatusCode == http.StatusUnauthorized {
			c.emitUnauthorized(ctx, apiErr)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcomeCanceled, fmt.Errorf("lms api %s %s: %w", method, path, ctxErr)
		}
		return outcome, apiErr
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcomeCanceled, fmt.Errorf("lms api %s %s: %w", method, path, ctxErr)
	}
	if readErr != nil {
		return outcome, &APIError{Status: resp.StatusCode, Message: MsgInvalidResponse, Method: method, Path: path, Err: readErr}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return outcome, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		l.DebugContext(ctx, "undecodable lms api response",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return outcome, &APIError{Status: resp.StatusCode, Message: MsgInvalidResponse, Method: method, Path: path, Err: err}
	}
	return outcome, nil
}

// credential reads the bearer token for the call. A failing source is not an
// API failure and surfaces as a plain wrapped error.
func (c *Client) credential(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return token, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, token string) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	return resp, err
}

func (c *Client) responseError(ctx context.Context, method, path string, resp *http.Response, raw []byte) *APIError {
	var details any
	if err := json.Unmarshal(raw, &details); err != nil || details == nil {
		details = map[string]any{}
	}

	message, wellFormed := errorMessage(details, resp)
	if !wellFormed {
		logger.FromContext(ctx).DebugContext(ctx, "lms api error message is not a string",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
	}

	return &APIError{
		Status:  resp.StatusCode,
		Message: message,
		Details: details,
		Method:  method,
		Path:    path,
	}
}

func (c *Client) emitUnauthorized(ctx context.Context, apiErr *APIError) {
	c.mu.RLock()
	subs := make([]UnauthorizedFunc, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s.fn)
	}
	c.mu.RUnlock()

	unauthorizedEvents.Inc()
	for _, fn := range subs {
		fn(ctx, apiErr)
	}
}
