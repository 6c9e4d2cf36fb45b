package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/chachabrian/hall-booking/internal/booking"
	"github.com/chachabrian/hall-booking/internal/config"
	"github.com/chachabrian/hall-booking/internal/database"
	"github.com/chachabrian/hall-booking/internal/gateway"
	"github.com/chachabrian/hall-booking/internal/handlers"
	"github.com/chachabrian/hall-booking/internal/metrics"
	"github.com/chachabrian/hall-booking/internal/middleware"
	"github.com/chachabrian/hall-booking/internal/services"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger := newLogger(cfg)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(cfg.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	if err := database.RunMigrations(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	metrics.Register()

	hub := services.NewHub(logger)
	go hub.Run(ctx)
	events := booking.Publishers{hub}

	var settings booking.SettingsProvider = booking.NewStoreSettings(db)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = services.InitRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Redis")
		}
		defer rdb.Close()
		events = append(events, services.NewRedisPublisher(rdb))
		settings = services.NewCachedSettings(settings, rdb, cfg.SettingsCacheTTL)
	} else {
		logger.Warn().Msg("REDIS_URL not set; booking events are only pushed to websocket subscribers")
	}

	var gw gateway.Gateway
	if rp, err := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret); err != nil {
		logger.Warn().Err(err).Msg("Payment gateway disabled")
	} else {
		gw = rp
	}

	var reports services.ReportStorage
	reportDir := ""
	if cfg.S3Enabled() {
		if reports, err = services.NewS3Storage(cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey, cfg.AWSBucket); err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize report storage")
		}
	} else {
		local, err := services.NewLocalStorage(cfg.ReportDir, cfg.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize report storage")
		}
		reports, reportDir = local, local.Dir()
		logger.Warn().Str("dir", reportDir).Msg("AWS S3 not configured, storing reports locally")
	}

	svc := booking.NewService(db, booking.Options{
		Settings: settings,
		Gateway:  gw,
		Events:   events,
		Currency: cfg.PaymentCurrency,
		Location: cfg.Location(),
		Logger:   logger.With().Str("component", "booking").Logger(),
	})

	reclaimer := booking.NewReclaimer(db, booking.ReclaimerOptions{
		Interval: cfg.ReclaimInterval,
		Timeout:  cfg.ReclaimTimeout,
		Events:   events,
		Logger:   logger.With().Str("component", "reclaimer").Logger(),
	})
	go reclaimer.Start(ctx)

	r := handlers.NewRouter(handlers.RouterDeps{
		DB:        db,
		Service:   svc,
		Hub:       hub,
		Reports:   reports,
		ReportDir: reportDir,
		JWTSecret: cfg.JWTSecret,
		Limiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
