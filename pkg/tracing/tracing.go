// Package tracing carries W3C trace context through the HTTP pipeline and
// exposes the trace, span and parent identifiers used for log correlation.
package tracing

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "mapdata-api/pkg/tracing"

// NewProvider returns an always-sampling tracer provider. No exporter is
// attached; spans exist to mint and propagate identifiers.
func NewProvider(opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	opts = append([]sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}, opts...)
	return sdktrace.NewTracerProvider(opts...)
}

// IDs are the correlation identifiers of the current request.
type IDs struct {
	TraceID  string
	SpanID   string
	ParentID string
}

type parentKey struct{}

// Middleware extracts inbound traceparent headers, starts a server span for
// the request and stores it on the request context.
func Middleware(tp trace.TracerProvider) gin.HandlerFunc {
	tracer := tp.Tracer(TracerName)
	prop := propagation.TraceContext{}

	return func(c *gin.Context) {
		ctx := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		if remote := trace.SpanContextFromContext(ctx); remote.IsValid() {
			ctx = context.WithValue(ctx, parentKey{}, remote.SpanID().String())
		}

		name := c.Request.Method + " " + c.Request.URL.Path
		ctx, span := tracer.Start(ctx, name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("url.path", c.Request.URL.Path),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}

// FromContext returns the identifiers of the active span. Fields are empty
// when no valid span is present.
func FromContext(ctx context.Context) IDs {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return IDs{}
	}
	ids := IDs{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
	if p, ok := ctx.Value(parentKey{}).(string); ok {
		ids.ParentID = p
	}
	return ids
}

// TraceID is a convenience for FromContext(ctx).TraceID.
func TraceID(ctx context.Context) string {
	return FromContext(ctx).TraceID
}

// TraceIDOr returns the active trace id, or fallback when there is none.
func TraceIDOr(ctx context.Context, fallback string) string {
	if id := TraceID(ctx); id != "" {
		return id
	}
	return fallback
}
