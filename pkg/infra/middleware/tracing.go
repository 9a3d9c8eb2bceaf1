package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/docqa/pkg/infra/middleware/common"
	"github.com/kart-io/docqa/pkg/infra/tracing"
)

// TracerName is the name of the tracer for HTTP middleware.
const TracerName = "github.com/kart-io/docqa/pkg/infra/middleware"

// Tracing returns a middleware that starts a server span per request.
// Incoming W3C trace context is honoured and the trace ID is echoed in X-Trace-ID.
func Tracing(skipPaths ...string) gin.HandlerFunc {
	skip := newPathMatcher(skipPaths)

	return func(c *gin.Context) {
		req := c.Request
		if skip(req.URL.Path) {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		route := c.FullPath()
		if route == "" {
			route = req.URL.Path
		}
		ctx, span := tracing.StartSpan(ctx, TracerName, fmt.Sprintf("%s %s", req.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(req.Method),
				attribute.String("http.route", route),
				semconv.HTTPTarget(req.URL.Path),
				semconv.ServerAddress(req.Host),
			),
		)
		defer span.End()

		if requestID := common.GetRequestID(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		if traceID := tracing.TraceIDFromContext(ctx); traceID != "" {
			c.Header(HeaderXTraceID, traceID)
		}

		c.Request = req.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
	}
}

// HeaderXTraceID is the response header carrying the trace ID.
const HeaderXTraceID = "X-Trace-ID"
