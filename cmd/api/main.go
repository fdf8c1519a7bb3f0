package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mapdata-api/internal/apierror"
	"mapdata-api/internal/auth"
	"mapdata-api/internal/comments"
	"mapdata-api/internal/config"
	"mapdata-api/internal/httpapi"
	"mapdata-api/internal/notify"
	"mapdata-api/internal/stats"
	"mapdata-api/pkg/logger"
	"mapdata-api/pkg/tracing"
	"mapdata-api/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	apierror.UseJSONFieldNames()

	tp := tracing.NewProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	creds := auth.HMACCredentials(cfg.Auth.JWTSecret)
	issuer, err := auth.NewIssuer(auth.IssuerOptions{
		Issuer:           cfg.Auth.JWTIssuer,
		Audience:         cfg.Auth.JWTAudience,
		UseAudience:      cfg.Auth.ValidateAudience,
		ValidFor:         cfg.Auth.TokenTTL,
		Credentials:      creds,
		TokenIDGenerator: auth.UUIDTokenID,
	})
	if err != nil {
		log.Error("token issuer init failed", "err", err)
		os.Exit(1)
	}
	validator, err := auth.NewValidator(auth.ValidatorOptions{
		Issuer:           cfg.Auth.JWTIssuer,
		Audience:         cfg.Auth.JWTAudience,
		ValidateAudience: cfg.Auth.ValidateAudience,
		Credentials:      creds,
	})
	if err != nil {
		log.Error("token validator init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	commentRepo := comments.NewPostgresRepo(db)
	if err := commentRepo.EnsureSchema(rootCtx); err != nil {
		log.Error("comments schema init failed", "err", err)
		os.Exit(1)
	}

	statsRepo := stats.NewPostgresRepo(db)
	if err := statsRepo.EnsureSchema(rootCtx); err != nil {
		log.Error("stats schema init failed", "err", err)
		os.Exit(1)
	}
	statsOpts := stats.Options{
		CacheTTL:         cfg.Stats.CacheTTL,
		DistrictProperty: cfg.Stats.DistrictProperty,
	}
	if p := cfg.Stats.MapPath; p != "" {
		statsOpts.MapFS = os.DirFS(filepath.Dir(p))
		statsOpts.MapPath = filepath.Base(p)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	sessions, err := auth.NewSessionGate(validator, auth.NewRedisStore(rdb), cfg.Auth.SessionTTL, cfg.Auth.StrictSessions)
	if err != nil {
		log.Error("session gate init failed", "err", err)
		os.Exit(1)
	}

	dispatcher, err := notify.NewDispatcher(cfg.Notify.PoolSize, log)
	if err != nil {
		log.Error("notification pool init failed", "err", err)
		os.Exit(1)
	}
	var notifier apierror.Notifier
	if cfg.Notify.Enabled() {
		mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Username: cfg.Notify.SMTPUsername,
			Password: cfg.Notify.SMTPPassword,
		})
		if err != nil {
			log.Error("smtp mailer init failed", "err", err)
			os.Exit(1)
		}
		notifier = notify.NewExceptionNotifier(mailer, dispatcher, notify.ExceptionOptions{
			ServiceName: cfg.App.ServiceName,
			From:        cfg.Notify.From,
			To:          cfg.Notify.To,
			Subject:     cfg.Notify.Subject,
		})
	}

	r := newRouter(routerDeps{
		Log:         log,
		ServiceName: cfg.App.ServiceName,
		Tracer:      tp,
		Notifier:    notifier,
		Events:      auth.SessionEvents(sessions),
		Handlers: httpapi.Handlers{
			Issuer:    issuer,
			Validator: validator,
			Sessions:  sessions,
			Comments:  comments.NewService(commentRepo),
			Stats:     stats.NewService(statsRepo, statsOpts),
			ClientKey: cfg.Auth.ClientKey,
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "service", cfg.App.ServiceName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := dispatcher.Close(5 * time.Second); err != nil {
		log.Warn("notification pool close", "err", err)
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warn("tracer provider shutdown", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
