package audit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxLoggedBody is the number of characters of a body kept in the log line.
	MaxLoggedBody = 1000

	truncationMarker = "(Truncated to first 1000 chars)|"
	redacted         = "[REDACTED]"
)

// Record summarizes one completed request. It only ever reaches the log sink.
type Record struct {
	Method     string
	Path       string
	StatusCode int
	Elapsed    time.Duration

	RequestBody    string
	ResponseBody   string
	RequestHeaders map[string]string

	TraceID   string
	SpanID    string
	ParentID  string
	RequestID string

	// Err is set when the request failed without writing a response.
	Err error
}

// Level is Error for failed requests, Debug otherwise.
func (r Record) Level() slog.Level {
	if r.StatusCode >= http.StatusBadRequest || r.Err != nil {
		return slog.LevelError
	}
	return slog.LevelDebug
}

// ElapsedMillis is the elapsed time in fractional milliseconds.
func (r Record) ElapsedMillis() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// Message renders the one-line summary, prefixed with the service name.
func (r Record) Message(service string) string {
	return fmt.Sprintf("[%s] HTTP %s %s responded %d in %.4f ms with TraceId: %s, RequestId: %s",
		service, r.Method, r.Path, r.StatusCode, r.ElapsedMillis(), r.TraceID, r.RequestID)
}

// Attrs returns the structured fields of the record. Bodies are truncated.
func (r Record) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("RequestMethod", r.Method),
		slog.String("RequestPath", r.Path),
		slog.Int("StatusCode", r.StatusCode),
		slog.Float64("Elapsed", r.ElapsedMillis()),
		slog.String("traceId", r.TraceID),
		slog.String("requestId", r.RequestID),
		slog.String("RequestBody", Truncate(r.RequestBody)),
		slog.String("ResponseBody", Truncate(r.ResponseBody)),
		slog.String("TraceId", r.TraceID),
		slog.String("SpanId", r.SpanID),
		slog.String("ParentId", r.ParentID),
		slog.Any("RequestHeaders", r.RequestHeaders),
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}
	return attrs
}

// Truncate caps s at MaxLoggedBody characters, prefixing a marker when it cuts.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxLoggedBody {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxLoggedBody {
			return truncationMarker + s[:i]
		}
		n++
	}
	return s
}

// flattenHeaders joins multi-valued headers and masks credentials.
func flattenHeaders(h http.Header, sensitive map[string]struct{}) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if k == "" {
			continue
		}
		if _, ok := sensitive[http.CanonicalHeaderKey(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}
