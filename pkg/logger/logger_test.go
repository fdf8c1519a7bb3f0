package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNew_LevelFromEnvAndOverride(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter(&buf, "dev", "")
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug enabled for dev")
	}

	l = NewWithWriter(&buf, "production", "")
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug disabled for production")
	}

	l = NewWithWriter(&buf, "production", "debug")
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected LOG_LEVEL override to enable debug")
	}
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(Middleware(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	r.GET("/x", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if seen == "" {
		t.Fatalf("expected request id")
	}
	if w.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("expected header %q, got %q", seen, w.Header().Get(HeaderRequestID))
	}
}

func TestMiddleware_HonoursInboundRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(slog.Default()))
	r.GET("/x", func(c *gin.Context) { c.String(200, RequestID(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc")
	r.ServeHTTP(w, req)

	if w.Body.String() != "abc" {
		t.Fatalf("expected inbound id, got %q", w.Body.String())
	}
}

func TestNewRequestID_Unique(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == b || len(a) != 26 {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}
