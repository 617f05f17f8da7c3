// Package api is the service layer for the accounting backend: one service
// per resource, built on a shared HTTP client that owns authentication,
// request IDs, rate limiting, tracing and metrics.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/logger"
	"github.com/erp/books/internal/infrastructure/telemetry"
	"github.com/erp/books/internal/infrastructure/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies bearer tokens. AccessToken may return an empty token
// for anonymous calls; Refresh is called once after a 401.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
	RateBurst  int
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *telemetry.Metrics
	Tracer     trace.Tracer
	Tokens     TokenSource
}

// Client is the HTTP transport shared by every resource service.
// Failed calls are never retried, except for one token refresh after a 401.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	validator  *validation.Validator

	mu     sync.RWMutex
	tokens TokenSource
}

// New creates a Client
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "books-cli"
	}

	// A copy, so a shared client such as http.DefaultClient keeps its timeout
	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		*httpClient = *opts.HTTPClient
	}
	httpClient.Timeout = opts.Timeout

	c := &Client{
		baseURL:    u,
		httpClient: httpClient,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger.Named("api"),
		metrics:    opts.Metrics,
		tracer:     opts.Tracer,
		validator:  validation.New(),
		tokens:     opts.Tokens,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// SetTokenSource installs the token source after construction, for when the
// source itself needs this client to log in.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) tokenSource() TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// Request describes one backend call
type Request struct {
	Method string
	Path   string
	Query  *Query
	// Body is JSON-encoded when set. RawBody with ContentType is sent as is.
	Body        any
	RawBody     []byte
	ContentType string
	// Resource labels metrics and spans, e.g. "vendors"
	Resource string
	// NoAuth skips the bearer token and the refresh-on-401 path
	NoAuth bool
}

// Do sends the request and decodes a successful JSON response into out.
// If out is a *[]byte the raw body is stored instead.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, req, body, contentType, false)
	if err != nil {
		return err
	}
	return decodeBody(resp, out)
}

// send performs the call, refreshing the token and retrying once on a 401
func (c *Client) send(ctx context.Context, req Request, body []byte, contentType string, retried bool) (*rawResponse, error) {
	resp, err := c.roundTrip(ctx, req, body, contentType)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized && !req.NoAuth && !retried {
		if ts := c.tokenSource(); ts != nil {
			if _, err := ts.Refresh(ctx); err != nil {
				return nil, err
			}
			return c.send(ctx, req, body, contentType, true)
		}
	}
	if resp.status < 200 || resp.status > 299 {
		apiErr := parseError(resp, req)
		logger.Enrich(ctx, c.logger).Warn("backend request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status", resp.status),
			zap.String("code", apiErr.Code),
			zap.String("request_id", resp.requestID),
		)
		return nil, apiErr
	}
	return resp, nil
}

type rawResponse struct {
	status    int
	body      []byte
	requestID string
}

func (c *Client) roundTrip(ctx context.Context, req Request, body []byte, contentType string) (*rawResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, requestID)
	ctx, span := telemetry.StartSpan(ctx, c.tracer, req.Method+" "+req.Resource, trace.SpanKindClient,
		"http.request.method", req.Method,
		telemetry.AttrResource, req.Resource,
		telemetry.AttrRequestID, requestID,
	)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path, req.Query), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	if !req.NoAuth {
		if ts := c.tokenSource(); ts != nil {
			token, err := ts.AccessToken(ctx)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
			if token != "" {
				httpReq.Header.Set("Authorization", "Bearer "+token)
			}
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, req.Resource, 0, elapsed)
		telemetry.RecordError(span, err)
		logger.Enrich(ctx, c.logger).Error("backend unreachable",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	c.metrics.ObserveRequest(req.Method, req.Resource, httpResp.StatusCode, elapsed)
	telemetry.SetAttributes(span, "http.response.status_code", httpResp.StatusCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if httpResp.StatusCode >= 400 {
		telemetry.RecordError(span, fmt.Errorf("status %d", httpResp.StatusCode))
	}

	respID := httpResp.Header.Get(RequestIDHeader)
	if respID == "" {
		respID = requestID
	}
	return &rawResponse{status: httpResp.StatusCode, body: data, requestID: respID}, nil
}

// url joins the base URL and an already escaped path
func (c *Client) url(path string, q *Query) string {
	u := *c.baseURL
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	if unescaped, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = unescaped
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func encodeBody(req Request) ([]byte, string, error) {
	if req.RawBody != nil {
		return req.RawBody, req.ContentType, nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request body: %w", err)
	}
	return data, "application/json", nil
}

func decodeBody(resp *rawResponse, out any) error {
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = resp.body
		return nil
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return fmt.Errorf("decoding response: empty body")
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorBody covers the error shapes the backend produces
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseError(resp *rawResponse, req Request) *Error {
	e := &Error{
		StatusCode: resp.status,
		Method:     req.Method,
		Path:       req.Path,
		RequestID:  resp.requestID,
	}
	var body errorBody
	if json.Unmarshal(resp.body, &body) == nil {
		switch {
		case body.Error != nil:
			e.Code, e.Message = body.Error.Code, body.Error.Message
		case body.Message != "":
			e.Code, e.Message = body.Code, body.Message
		case len(body.Detail) > 0:
			var s string
			if json.Unmarshal(body.Detail, &s) == nil {
				e.Message = s
			} else {
				e.Message = string(body.Detail)
			}
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.status)
	}
	return e
}

// requireID rejects a blank record ID before any request is built
func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return shared.NewValidationError(kind+"_id", "is required")
	}
	return nil
}

// requireIDs checks kind/id pairs in order
func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := requireID(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}
