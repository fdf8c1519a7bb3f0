package main

import (
	"log/slog"
	"net/http"

	"mapdata-api/internal/apierror"
	"mapdata-api/internal/audit"
	"mapdata-api/internal/auth"
	"mapdata-api/internal/httpapi"
	"mapdata-api/internal/rbac"
	"mapdata-api/pkg/logger"
	"mapdata-api/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type routerDeps struct {
	Log         *slog.Logger
	ServiceName string
	Tracer      trace.TracerProvider
	Notifier    apierror.Notifier
	Handlers    httpapi.Handlers
	Events      auth.Events
}

// newRouter wires the interceptor pipeline and routes.
// Keep this file free of business logic. Handlers delegate to internal modules.
//
// Pipeline, outermost first: tracing, request id, error normalizer, audit
// logger, router.
func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		tracing.Middleware(d.Tracer),
		logger.Middleware(d.Log),
		apierror.Normalizer(d.Log, d.Notifier),
		audit.Middleware(d.Log, audit.Options{ServiceName: d.ServiceName}),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := d.Handlers
	authMW := auth.Authenticate(h.Validator, d.Events)

	v1 := r.Group("/v1")
	{
		tokens := v1.Group("/auth")
		tokens.Use(httpapi.RateLimit(httpapi.TokenEndpointLimit))
		tokens.POST("/token", h.IssueToken)
		tokens.POST("/refresh", h.RefreshToken)

		secured := v1.Group("")
		secured.Use(authMW, rbac.RequirePolicy())
		secured.GET("/me", h.Me)

		m := secured.Group("/map")
		m.Use(rbac.RequireBusinessUnit())
		m.POST("/comments", h.AddComment)
		m.GET("/comments", h.ListComments)
		m.GET("/chartdata/cases", h.CasesChart)
		m.GET("/chartdata/death", h.DeathChart)
		m.GET("/statedata", h.StateData)
		m.GET("/griddata", h.GridData)
		m.GET("/getgeojson", h.GeoJSON)
	}
	return r
}
