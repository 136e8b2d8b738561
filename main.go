package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"group-order-service/internal/handlers"
	"group-order-service/internal/middleware"
	"group-order-service/internal/models"
	"group-order-service/internal/observability"
	"group-order-service/internal/rabbitmq"
	"group-order-service/internal/sessions"
	"group-order-service/internal/store"
	"group-order-service/internal/telemetry"
	"group-order-service/internal/watch"
	"group-order-service/pkg/logging"
)

const serviceName = "group-order-service"

func main() {
	logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	var sessionStore store.Store
	if dsn := getEnv("DB_DSN", ""); dsn != "" {
		pg, err := store.ConnectPostgres(dsn)
		if err != nil {
			slog.Error("failed to connect to db", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		sessionStore = pg
		slog.Info("session store ready", "backend", "postgres")
	} else {
		sessionStore = store.NewMemoryStore()
		slog.Info("session store ready", "backend", "memory")
	}

	sweeper := store.NewSweeper(sessionStore, sweepIntervalFromEnv())
	go sweeper.Run(ctx)

	auditPublisher := rabbitmq.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AUDIT_EXCHANGE", "group-order-audit"))
	defer auditPublisher.Close()
	slog.Info("audit publisher ready", "mode", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.group-order", serviceName, getEnv("ENV", "dev"))

	if url := getEnv("AMQP_URL", ""); url != "" {
		eventsPublisher, err := observability.NewAMQPPublisher(url, getEnv("EVENTS_EXCHANGE", "group-order-events"))
		if err != nil {
			slog.Warn("event publisher disabled", "error", err)
		} else {
			observability.SetPublisher(eventsPublisher)
			defer eventsPublisher.Close()
		}
	}

	hub := watch.NewHub()
	events, cancelEvents := hub.SubscribeAll()
	defer cancelEvents()
	go forwardSessionEvents(ctx, events)

	service := sessions.NewService(sessionStore, hub)
	sessionHandler := handlers.NewSessionHandler(service, audit)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		otelgin.Middleware(serviceName),
		observability.HTTPMetricsMiddleware(),
	)

	router.POST("/group-sessions", sessionHandler.Create)
	router.GET("/group-sessions", sessionHandler.GetOrList)
	router.GET("/group-sessions/:id", sessionHandler.Get)
	router.PATCH("/group-sessions/:id", sessionHandler.Patch)
	router.DELETE("/group-sessions/:id", sessionHandler.Delete)
	router.POST("/group-sessions/:id/join", sessionHandler.Join)
	router.POST("/group-sessions/:id/leave", sessionHandler.Leave)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.RegisterDebugRoutes(router, audit, getEnv("ENABLE_DEBUG_ROUTES", "") == "true")

	srv := &http.Server{
		Addr:    ":" + getEnv("PORT", "8083"),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// forwardSessionEvents bridges the in-process watch hub to the broker so
// downstream consumers see session changes without the core gaining a push
// transport toward ordering clients.
func forwardSessionEvents(ctx context.Context, events <-chan models.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			envelope := observability.NewEventEnvelope(serviceName, event.Type, event)
			_ = observability.PublishEvent(ctx, "session_events."+event.Type, envelope)
		}
	}
}

func sweepIntervalFromEnv() time.Duration {
	raw := getEnv("SWEEP_INTERVAL", "")
	if raw == "" {
		return time.Hour
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid SWEEP_INTERVAL, using default", "value", raw)
		return time.Hour
	}
	return interval
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
