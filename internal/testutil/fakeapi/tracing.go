package fakeapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName names the server spans
const ServiceName = "books-fakeapi"

// tracing opens a server span per request, continuing the caller's trace
// from its traceparent header. Without a provider the global one is used.
func (s *Server) tracing() gin.HandlerFunc {
	var opts []otelgin.Option
	if s.opts.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(s.opts.TracerProvider))
	}
	if s.opts.Propagators != nil {
		opts = append(opts, otelgin.WithPropagators(s.opts.Propagators))
	}
	return otelgin.Middleware(ServiceName, opts...)
}

// spanAttributes tags the server span with the request and company IDs and
// marks 5xx answers as errors.
func spanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		span.SetAttributes(attribute.String("request_id", c.GetString(requestIDKey)))
		if id := c.Param("company_id"); id != "" {
			span.SetAttributes(attribute.String("company_id", id))
		}
		c.Next()
		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
