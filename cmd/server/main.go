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

	"github.com/redis/go-redis/v9"

	_ "github.com/njoroofficial/dev-events/docs"

	"github.com/njoroofficial/dev-events/config"
	"github.com/njoroofficial/dev-events/internal/adapters/auth"
	"github.com/njoroofficial/dev-events/internal/adapters/email"
	"github.com/njoroofficial/dev-events/internal/adapters/images"
	httpdelivery "github.com/njoroofficial/dev-events/internal/delivery/http"
	"github.com/njoroofficial/dev-events/internal/delivery/http/controllers"
	"github.com/njoroofficial/dev-events/internal/delivery/http/middleware"
	"github.com/njoroofficial/dev-events/internal/domain"
	"github.com/njoroofficial/dev-events/internal/queue"
	mongorepo "github.com/njoroofficial/dev-events/internal/repository/mongo"
	"github.com/njoroofficial/dev-events/internal/repository/postgres"
	"github.com/njoroofficial/dev-events/internal/services"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	serviceTimeout  = 5 * time.Second
	limiterIdleTTL  = 10 * time.Minute
)

// @title Dev Events API
// @version 1.0
// @description Developer-events platform: browse events, fetch them by slug, create them with an image upload, and book a spot with an email address.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStartup()

	// Postgres holds users and bookings and is required at startup.
	db, err := postgres.Open(startupCtx, cfg.DBUrl)
	if err != nil {
		logger.Error("postgres unavailable", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(startupCtx, db); err != nil {
		logger.Error("postgres schema setup failed", "err", err)
		os.Exit(1)
	}

	// Mongo holds events. The connector is lazy: nothing dials here, the
	// first request that needs an event does, and concurrent first requests
	// share that one dial.
	connector := mongorepo.NewConnector(cfg.MongoURI, cfg.MongoDB, startupTimeout, mongorepo.EnsureEventIndexes)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := connector.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect failed", "err", err)
		}
	}()

	// Redis backs the response cache. Without it the API serves every read
	// from the stores directly.
	var rdb *redis.Client
	var cache *middleware.Cache
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(startupCtx).Err(); err != nil {
			logger.Warn("redis unavailable, response cache disabled", "err", err)
			rdb = nil
		} else {
			cache = middleware.NewCache(rdb, cfg.CacheTTL)
		}
	}

	// Adapters
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewJWTIssuer(cfg.JWTSecret)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
		},
	})
	if err != nil {
		logger.Error("mailer setup failed", "err", err)
		os.Exit(1)
	}
	uploader := images.NewUploader(images.UploaderConfig{
		Provider: cfg.UploaderProvider,
		Endpoint: cfg.UploaderEndpoint,
		APIKey:   cfg.UploaderAPIKey,
		BaseURL:  cfg.UploaderBaseURL,
	}, nil)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	// Booking notifications ride RabbitMQ when a broker is configured; the
	// consumer turns them into confirmation emails.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notifier domain.BookingNotifier = queue.NoopNotifier{}
	if cfg.AMQPUrl != "" {
		publisher, err := queue.NewPublisher(cfg.AMQPUrl)
		if err != nil {
			logger.Warn("broker unavailable, booking notifications disabled", "err", err)
		} else {
			defer publisher.Close()
			notifier = publisher
			consumer := queue.NewConsumer(cfg.AMQPUrl, emailService)
			go func() {
				if err := consumer.Start(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("queue consumer stopped", "err", err)
				}
			}()
		}
	}

	// Repositories and services
	eventRepo := mongorepo.NewEventRepository(connector)
	userRepo := postgres.NewUserRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	eventService := services.NewEventService(eventRepo, uploader, serviceTimeout)
	bookingService := services.NewBookingService(bookingRepo, eventRepo, notifier, serviceTimeout)
	authService := services.NewAuthService(userRepo, hasher, tokens, cfg.TokenTTL, emailService, serviceTimeout)

	// Controllers
	checks := []controllers.HealthCheck{
		{Name: "postgres", Ping: db.PingContext},
		{Name: "mongodb", Ping: func(ctx context.Context) error {
			mdb, err := connector.Database(ctx)
			if err != nil {
				return err
			}
			return mdb.Client().Ping(ctx, nil)
		}},
	}
	if rdb != nil {
		checks = append(checks, controllers.HealthCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	var invalidator controllers.EventCacheInvalidator
	if cache != nil {
		invalidator = cache
	}
	eventController := controllers.NewEventController(logger, eventService, invalidator)
	bookingController := controllers.NewBookingController(logger, bookingService)
	authController := controllers.NewAuthController(logger, authService)
	healthController := controllers.NewHealthController(logger, checks)

	limiter := middleware.NewRateLimiter(middleware.LimiterConfig{
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
		IdleTTL: limiterIdleTTL,
	})

	mux := httpdelivery.NewRouter(eventController, bookingController, authController, healthController, tokens, cache, limiter)
	handler := middleware.CORS(cfg.AllowedOrigins, middleware.Logging(logger, mux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}
}
