package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_StartsSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tp := NewProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var ids IDs
	r := gin.New()
	r.Use(Middleware(tp))
	r.GET("/x", func(c *gin.Context) {
		ids = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Len(t, ids.TraceID, 32)
	assert.Len(t, ids.SpanID, 16)
	assert.Empty(t, ids.ParentID)
}

func TestMiddleware_ContinuesInboundTrace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tp := NewProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var ids IDs
	r := gin.New()
	r.Use(Middleware(tp))
	r.GET("/x", func(c *gin.Context) {
		ids = FromContext(c.Request.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ids.TraceID)
	assert.Equal(t, "00f067aa0ba902b7", ids.ParentID)
	assert.NotEqual(t, "00f067aa0ba902b7", ids.SpanID)
}

func TestFromContext_NoSpan(t *testing.T) {
	assert.Equal(t, IDs{}, FromContext(context.Background()))
}

func TestTraceIDOr_FallsBack(t *testing.T) {
	assert.Equal(t, "rid", TraceIDOr(context.Background(), "rid"))
}
