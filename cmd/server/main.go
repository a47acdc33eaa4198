package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/concierge-webhook/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/concierge-webhook/internal/adapter/queue"
	"github.com/seu-repo/concierge-webhook/internal/adapter/storage/postgres"
	"github.com/seu-repo/concierge-webhook/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
	"github.com/seu-repo/concierge-webhook/internal/ports"
	"github.com/seu-repo/concierge-webhook/internal/service/conversation"
	"github.com/seu-repo/concierge-webhook/internal/service/health"
	"github.com/seu-repo/concierge-webhook/internal/service/intent"
	"github.com/seu-repo/concierge-webhook/internal/service/transcript"
	"github.com/seu-repo/concierge-webhook/internal/service/translation"
	"github.com/seu-repo/concierge-webhook/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting concierge webhook",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(telemetry.TracerConfig{
			ServiceName:    cfg.OpenTelemetry.ServiceName,
			ServiceVersion: cfg.App.Version,
			Endpoint:       cfg.OpenTelemetry.Jaeger.Endpoint,
			SampleRatio:    cfg.OpenTelemetry.Jaeger.SamplerParam,
		})
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Initialize Redis (shared by the session store and the translation cache)
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = connectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	healthService := health.NewService(cfg.App.Version, logger)

	// 5. Session Store
	store := newSessionStore(cfg, redisClient, logger)
	defer store.Close()
	healthService.RegisterPing("session_store", true, store.Ping)

	// 6. Translation Cache
	translationCache := newTranslationCache(cfg.Cache, redisClient, logger)
	if translationCache != nil {
		defer translationCache.Close()
		healthService.RegisterPing("translation_cache", false, func(ctx context.Context) error {
			return translationCache.Ping()
		})
	}

	// 7. Capabilities behind circuit breakers
	var breakers *circuitbreaker.Manager
	if cfg.CircuitBreaker.Enabled {
		breakers = circuitbreaker.NewManager(circuitbreaker.Settings{
			MaxRequests:  cfg.CircuitBreaker.MaxRequests,
			Interval:     cfg.CircuitBreaker.Interval,
			Timeout:      cfg.CircuitBreaker.Timeout,
			MinRequests:  cfg.CircuitBreaker.MinRequests,
			FailureRatio: cfg.CircuitBreaker.FailureThreshold,
		}, logger)
		healthService.RegisterChecker("circuit_breakers", health.OpenBreakersChecker(breakers.Open))
	}

	caps, err := newCapabilities(cfg, breakers, logger)
	if err != nil {
		logger.Fatal("Failed to initialize capabilities", zap.Error(err))
	}

	routerOpts := []intent.Option{intent.WithTimeout(cfg.Classifier.Timeout)}
	if cfg.Dialog.GuardedTransitions {
		routerOpts = append(routerOpts, intent.WithGuards(intent.DefaultGuards()))
	}
	router := intent.NewRouter(caps.classifier(), logger, routerOpts...)

	gateway := translation.NewGateway(caps.translator(), logger,
		translation.WithTimeout(cfg.Translator.Timeout),
		translation.WithCache(translationCache, cfg.Cache.TranslationTTL),
	)

	// 8. Message Queue (turn events)
	var events ports.EventPublisher
	mq, err := queue.New(queue.Options{
		Driver:     cfg.Queue.Driver,
		URL:        cfg.Queue.URL,
		Name:       cfg.App.Name,
		Group:      cfg.Queue.Group,
		BufferSize: cfg.Queue.BufferSize,
	}, logger)
	switch {
	case errors.Is(err, queue.ErrNotConfigured):
		logger.Info("Turn events disabled")
	case err != nil:
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	default:
		events = queue.NewTurnPublisher(mq, cfg.Queue.Subject, logger)
		if p, ok := mq.(queue.Pinger); ok {
			healthService.RegisterPing("message_queue", false, func(ctx context.Context) error {
				return p.Ping()
			})
		}
	}

	// 9. Transcripts (PostgreSQL)
	var transcriptService ports.TranscriptService
	if cfg.Transcripts.Enabled {
		db, err := postgres.NewConnection(cfg.Database.URL, postgres.Options{
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			LogLevel:        cfg.Database.LogLevel,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer postgres.Close(db)

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		healthService.RegisterPing("database", false, func(ctx context.Context) error {
			return postgres.Ping(ctx, db)
		})

		recorder := transcript.NewService(postgres.NewTranscriptRepository(db, logger), logger)
		if err := recorder.Subscribe(mq, cfg.Queue.Subject); err != nil {
			logger.Fatal("Failed to start transcript recorder", zap.Error(err))
		}
		transcriptService = recorder
	}

	// 10. Conversation Service
	conversationService := conversation.NewService(store, router, gateway, events, logger)

	// 11. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Limits.MaxRequestBodySize,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.NewRateLimiter(cfg.RateLimiting, logger))

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	routes := handlers.Routes{
		Webhook:  handlers.NewWebhookHandler(conversationService, logger),
		Language: handlers.NewLanguageHandler(conversationService, logger),
	}
	if transcriptService != nil {
		routes.History = handlers.NewHistoryHandler(transcriptService, logger)
	}
	handlers.Register(app, routes)

	// 12. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 13. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// drain in-flight turn events before the database closes
	if mq != nil {
		if err := mq.Close(); err != nil {
			logger.Error("Error closing message queue", zap.Error(err))
		}
	}

	logger.Info("Server exited gracefully")
}
