package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/validation"
)

// listEnvelope is the backend's list response shape
type listEnvelope[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// getList fetches a list endpoint and validates every record. A single
// malformed record rejects the whole response.
func getList[T any](ctx context.Context, c *Client, resource, urlPath string, q *Query) (shared.Paginated[T], error) {
	var raw []byte
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: urlPath, Query: q, Resource: resource}, &raw); err != nil {
		return shared.Paginated[T]{}, err
	}

	var env listEnvelope[T]
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		// Some endpoints return a bare array
		if err := json.Unmarshal(trimmed, &env.Items); err != nil {
			return shared.Paginated[T]{}, fmt.Errorf("%s: %w: %w", resource, shared.ErrMalformedPayload, err)
		}
		env.Total = int64(len(env.Items))
	default:
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return shared.Paginated[T]{}, fmt.Errorf("%s: %w: %w", resource, shared.ErrMalformedPayload, err)
		}
	}

	if err := validation.Slice(c.validator, env.Items); err != nil {
		return shared.Paginated[T]{}, fmt.Errorf("%s: %w: %w", resource, shared.ErrMalformedPayload, err)
	}
	if q != nil {
		if env.Page == 0 {
			env.Page = atoi(q.Get("page"))
		}
		if env.PageSize == 0 {
			env.PageSize = atoi(q.Get("page_size"))
		}
	}
	return shared.NewPaginated(env.Items, env.Total, env.Page, env.PageSize), nil
}

// getOne fetches and validates a single record
func getOne[T any](ctx context.Context, c *Client, resource, urlPath string, q *Query) (T, error) {
	return call[T](ctx, c, Request{Method: http.MethodGet, Path: urlPath, Query: q, Resource: resource})
}

// call performs a request whose response is one validated record
func call[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	if err := c.Do(ctx, req, &out); err != nil {
		return out, err
	}
	if err := c.validator.Struct(out); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w: %w", req.Resource, shared.ErrMalformedPayload, err)
	}
	return out, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// companyPath builds the escaped path /companies/{id}/<parts...>. Every
// segment is escaped on its own, so an id holding "/" or ".." stays one
// segment and cannot reach another resource.
func companyPath(companyID string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/companies/")
	b.WriteString(escapeSegment(companyID))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(escapeSegment(p))
	}
	return b.String()
}

func escapeSegment(s string) string {
	switch s {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	return url.PathEscape(s)
}
