// Package app wires the LMS web front together and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/lucifer-699/EduCourseFrontend/internal/config"
	"github.com/lucifer-699/EduCourseFrontend/internal/event"
	"github.com/lucifer-699/EduCourseFrontend/internal/gateway"
	"github.com/lucifer-699/EduCourseFrontend/internal/guard"
	"github.com/lucifer-699/EduCourseFrontend/internal/handler"
	"github.com/lucifer-699/EduCourseFrontend/internal/lmsapi"
	"github.com/lucifer-699/EduCourseFrontend/internal/session"
	"github.com/lucifer-699/EduCourseFrontend/internal/tokenstore"
	"github.com/lucifer-699/EduCourseFrontend/internal/tokenstore/memory"
	redisstore "github.com/lucifer-699/EduCourseFrontend/internal/tokenstore/redis"
	"github.com/lucifer-699/EduCourseFrontend/pkg/database"
	"github.com/lucifer-699/EduCourseFrontend/pkg/health"
	pkgkafka "github.com/lucifer-699/EduCourseFrontend/pkg/kafka"
	pkgmiddleware "github.com/lucifer-699/EduCourseFrontend/pkg/middleware"
	"github.com/lucifer-699/EduCourseFrontend/pkg/tracing"
)

const janitorInterval = time.Minute

// App wires together all dependencies and runs the web front.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	sessions       *session.Manager
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error

	// background stops the janitor and the rate limiter eviction loop.
	background context.CancelFunc
}

// NewApp creates the application: session store, LMS API gateway, session
// manager, route guard and HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
		background:     bgCancel,
	}

	healthHandler := health.NewHandler()

	// Session store.
	var store tokenstore.Store
	switch cfg.SessionStore {
	case config.StoreRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPass
		redisCfg.DB = cfg.RedisDB
		a.redisClient, err = database.NewRedisClient(ctx, redisCfg, logger)
		if err != nil {
			a.closeEarly()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		database.SetSlowOpLogging(cfg.RedisSlowOpThreshold, logger)
		rs := redisstore.New(a.redisClient, cfg.SessionTTL)
		healthHandler.Register("session_store", rs.Ping)
		store = rs
	default:
		ms := memory.New(cfg.SessionTTL)
		go ms.RunJanitor(bgCtx, janitorInterval)
		healthHandler.Register("session_store", ms.Ping)
		store = ms
	}

	// Session events.
	var events event.Publisher = event.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		producerCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		producerCfg.Async = true
		a.producer = pkgkafka.NewProducer(producerCfg, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		events = event.NewProducer(a.producer, logger)
	}

	// LMS API gateway. The token source closes over the manager built below.
	gwCfg := gateway.Config{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.APITimeout,
		MaxConnsPerHost: cfg.APIMaxConns,
	}
	if cfg.BreakerEnabled {
		b := gateway.DefaultBreakerConfig()
		b.Timeout = cfg.BreakerTimeout
		b.MinRequests = cfg.BreakerMinRequests
		b.FailureRatio = cfg.BreakerRatio
		gwCfg.Breaker = &b
	}
	var sessions *session.Manager
	gw := gateway.New(gwCfg, gateway.TokenSourceFunc(func(ctx context.Context) (string, error) {
		return sessions.Token(ctx)
	}), logger)
	healthHandler.RegisterNonCritical("lms_api", gw.Ping)
	healthHandler.RegisterNonCritical("lms_api_breaker", func(context.Context) error {
		if state := gw.BreakerState(); state == gobreaker.StateOpen {
			return fmt.Errorf("circuit breaker %s", state)
		}
		return nil
	})

	api := lmsapi.New(gw)
	sessions = session.NewManager(store, api.Auth, events, logger)
	gw.OnUnauthorized(sessions.HandleUnauthorized)
	a.sessions = sessions

	g := guard.New(guard.Config{
		CookieName:       cfg.CookieName,
		CookieSecure:     cfg.CookieSecure,
		LoginPath:        "/login",
		UnauthorizedPath: cfg.UnauthorizedPath,
	}, sessions, logger)

	cors := pkgmiddleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.AllowCredentials = true

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:         cfg.ServiceName,
		RequestTimeout:      cfg.RequestTimeout,
		CORS:                cors,
		MetricsAllowedCIDRs: cfg.MetricsAllowedCIDRs,
		LoginLimit:          guard.RateLimit(bgCtx, cfg.LoginRatePerMinute, cfg.LoginBurst, logger),
	}, handler.New(sessions, api, logger), g, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("lms_api", a.cfg.APIBaseURL),
			slog.String("session_store", a.cfg.SessionStore),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown stops the application in order:
// 1. HTTP server (drain in-flight requests)
// 2. background logout notifications
// 3. Kafka producer (flush session events)
// 4. Redis
// 5. Tracer
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := a.sessions.Wait(waitCtx); err != nil {
		a.logger.Warn("pending logout notifications abandoned", slog.String("error", err.Error()))
	}

	a.background()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeEarly releases what NewApp set up before it failed.
func (a *App) closeEarly() {
	a.background()
	if a.tracerShutdown != nil {
		_ = a.tracerShutdown(context.Background())
	}
}
