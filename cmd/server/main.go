package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/techpulse/marketplace/internal/config"
	"github.com/techpulse/marketplace/internal/database"
	"github.com/techpulse/marketplace/internal/handler"
	"github.com/techpulse/marketplace/internal/jobs"
	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/media"
	"github.com/techpulse/marketplace/internal/middleware"
	"github.com/techpulse/marketplace/internal/queue"
	"github.com/techpulse/marketplace/internal/repository"
	"github.com/techpulse/marketplace/internal/router"
	"github.com/techpulse/marketplace/internal/service"
	"github.com/techpulse/marketplace/internal/tracing"
)

const (
	serviceName = "techpulse-api"
	version     = "1.0.0"
)

func main() {
	cfg := config.Load()
	logFile := logger.Init(logger.Options{
		Service: serviceName,
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDev(),
		File:    cfg.LogFile,
	})
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error(ctx).Err(err).Msg("server stopped with error")
		stop()
		_ = logFile.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := tracing.Init(ctx, serviceName, version, cfg.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		logger.Warn(ctx).Msg("redis unavailable: cache, rate limit and logout denylist disabled")
	} else {
		defer rdb.Close()
	}

	store, err := media.NewDiskStore(cfg.Media.Dir, cfg.Media.BaseURL, cfg.Media.MaxBytes)
	if err != nil {
		return fmt.Errorf("media store: %w", err)
	}

	var events service.EventPublisher = queue.Nop{}
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL)
		defer pub.Close()
		events = pub

		consumer := queue.NewConsumer(cfg.RabbitURL, store, pub, "logs")
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(ctx).Err(err).Msg("queue consumer stopped")
			}
		}()
	} else {
		logger.Warn(ctx).Msg("RABBITMQ_URL not set: moderation and media cleanup events disabled")
	}

	users := repository.NewUserRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	products := repository.NewProductRepo(db)
	listings := repository.NewListingRepo(db)
	reviews := repository.NewReviewRepo(db)
	stats := repository.NewStatsRepo(db)

	authSvc := service.NewAuthService(users, favorites, repository.NewTokenDenylist(rdb, ""), service.AuthConfig{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.JWTTTL,
		BcryptCost: cfg.BcryptCost,
	})
	listingSvc := service.NewListingService(listings, store, events, service.ListingConfig{
		MaxImages:     cfg.Media.MaxImages,
		UploadTimeout: cfg.Media.UploadTimeout,
	})

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			logger.Info(ctx).Str("email", cfg.AdminEmail).Msg("bootstrap admin created")
		}
	}

	sched := jobs.NewScheduler(stats)
	if err := sched.Start(cfg.StatsCron); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware(serviceName)))
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Metrics())
	e.Use(echomw.BodyLimit(bodyLimit(cfg.Media)))

	e.Static(cfg.Media.BaseURL, store.Dir())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cacheCfg := config.LoadCacheConfig()
	router.Register(e, router.Deps{
		Identifier: authSvc,
		Redis:      rdb,
		Cache:      cacheCfg,
		RateLimit:  config.LoadRateLimitConfig(),
		Auth:       handler.NewAuthHandler(authSvc),
		Products:   handler.NewProductHandler(service.NewProductService(products)),
		Listings:   handler.NewListingHandler(listingSvc),
		Reviews:    handler.NewReviewHandler(service.NewReviewService(reviews)),
		Favorites:  handler.NewFavoriteHandler(service.NewFavoriteService(favorites)),
		Admin:      handler.NewAdminHandler(service.NewAdminService(stats, users, listingSvc)),
		Cart:       handler.NewCartHandler(service.NewCartService(listings)),
	})

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
			ExposedHeaders: []string{"X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
			MaxAge:         600,
		}).Handler(e),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx).Str("addr", srv.Addr).Str("env", cfg.Env).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// bodyLimit admits one video and the maximum number of images per request.
func bodyLimit(m config.MediaConfig) string {
	total := m.MaxBytes * int64(m.MaxImages+1)
	return fmt.Sprintf("%dM", total>>20+1)
}
