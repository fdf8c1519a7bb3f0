package audit

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mapdata-api/pkg/logger"
	"mapdata-api/pkg/tracing"

	"github.com/gin-gonic/gin"
)

// HeaderTraceID carries the trace id on every response.
const HeaderTraceID = "x-service-traceid"

// Options configures the audit logger.
type Options struct {
	ServiceName string
	// SensitiveHeaders are logged as [REDACTED]. Defaults to Authorization
	// and the client key header.
	SensitiveHeaders []string
	// Now defaults to time.Now.
	Now func() time.Time
}

// bodyWriter tees the response body into a buffer. The client still receives
// every byte.
type bodyWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware emits exactly one log event per request. A panic is logged as a
// 500 and then re-raised for the error normalizer.
func Middleware(l *slog.Logger, opts Options) gin.HandlerFunc {
	if l == nil {
		l = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	names := opts.SensitiveHeaders
	if names == nil {
		names = []string{"Authorization", "X-Service-Client-Key"}
	}
	sensitive := make(map[string]struct{}, len(names))
	for _, h := range names {
		sensitive[http.CanonicalHeaderKey(h)] = struct{}{}
	}

	return func(c *gin.Context) {
		start := opts.Now()
		ctx := c.Request.Context()

		rid := logger.RequestID(c)
		ids := tracing.FromContext(ctx)
		if ids.TraceID == "" {
			ids.TraceID = rid
		}
		c.Header(HeaderTraceID, ids.TraceID)

		var reqBody []byte
		if c.Request.Body != nil {
			reqBody, _ = io.ReadAll(c.Request.Body)
			_ = c.Request.Body.Close()
			c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		orig := c.Writer
		bw := &bodyWriter{ResponseWriter: orig}
		c.Writer = bw

		rec := Record{
			Method:    c.Request.Method,
			Path:      c.Request.RequestURI,
			TraceID:   ids.TraceID,
			SpanID:    ids.SpanID,
			ParentID:  ids.ParentID,
			RequestID: rid,
		}

		defer func() {
			c.Writer = orig
			if p := recover(); p != nil {
				rec.StatusCode = http.StatusInternalServerError
				rec.Elapsed = opts.Now().Sub(start)
				rec.Err = panicErr(p)
				emit(c, l, opts.ServiceName, rec, reqBody, nil, sensitive)
				panic(p)
			}
		}()

		c.Next()

		rec.Elapsed = opts.Now().Sub(start)
		rec.StatusCode = bw.Status()
		if len(c.Errors) > 0 && !bw.Written() {
			// The normalizer turns this into a 500 once we return.
			rec.StatusCode = http.StatusInternalServerError
			rec.Err = c.Errors.Last().Err
		}
		emit(c, l, opts.ServiceName, rec, reqBody, bw.body.Bytes(), sensitive)
	}
}

func emit(c *gin.Context, l *slog.Logger, service string, rec Record, reqBody, respBody []byte, sensitive map[string]struct{}) {
	ctx := c.Request.Context()
	level := rec.Level()
	if !l.Enabled(ctx, level) {
		return
	}
	rec.RequestBody = string(reqBody)
	rec.ResponseBody = string(respBody)
	rec.RequestHeaders = flattenHeaders(c.Request.Header, sensitive)
	l.LogAttrs(ctx, level, rec.Message(service), rec.Attrs()...)
}

func panicErr(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}
