package apierror

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"mapdata-api/pkg/logger"
	"mapdata-api/pkg/tracing"

	"github.com/gin-gonic/gin"
)

// HeaderBusinessUnit names the division a caller belongs to.
const HeaderBusinessUnit = "businessunit"

// Report describes one normalized failure.
type Report struct {
	Envelope     Envelope
	Err          error
	BusinessUnit string
	Method       string
	Path         string
}

// Notifier receives reports out of band. Notify must not block the request.
type Notifier interface {
	Notify(ctx context.Context, r Report)
}

// Normalizer is the last-resort handler for failures escaping downstream
// middleware: panics, and errors attached with c.Error on a request that
// wrote nothing. It writes a 500 Envelope unless a status >= 400 is already
// set, and never re-panics.
func Normalizer(l *slog.Logger, n Notifier) gin.HandlerFunc {
	if l == nil {
		l = slog.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				handle(c, l, n, panicError(rec))
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			handle(c, l, n, c.Errors.Last().Err)
		}
	}
}

func handle(c *gin.Context, l *slog.Logger, n Notifier, err error) {
	c.Abort()
	if c.Writer.Status() >= http.StatusBadRequest {
		return
	}

	rid := logger.RequestID(c)
	env := NewEnvelope(rid, tracing.TraceIDOr(c.Request.Context(), rid), err)

	l.Error("unhandled error",
		"request_id", rid,
		"trace_id", env.TraceId,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err.Error(),
	)

	if c.Writer.Written() {
		// Headers are gone; nothing sensible can be written.
		l.Warn("response already started, envelope dropped", "request_id", rid)
	} else {
		body, _ := env.JSON()
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.Status(env.StatusCode)
		_, _ = c.Writer.Write(body)
	}

	if n != nil {
		n.Notify(context.WithoutCancel(c.Request.Context()), Report{
			Envelope:     env,
			Err:          err,
			BusinessUnit: strings.ToUpper(strings.TrimSpace(c.GetHeader(HeaderBusinessUnit))),
			Method:       c.Request.Method,
			Path:         c.Request.URL.Path,
		})
	}
}
