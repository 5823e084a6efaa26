package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/curatime/curatime/internal/api/router"
	"github.com/curatime/curatime/internal/appointments"
	"github.com/curatime/curatime/internal/auth"
	appconfig "github.com/curatime/curatime/internal/config"
	"github.com/curatime/curatime/internal/doctors"
	"github.com/curatime/curatime/internal/notify"
	"github.com/curatime/curatime/internal/observability/metrics"
	"github.com/curatime/curatime/internal/specialties"
	"github.com/curatime/curatime/internal/stats"
	"github.com/curatime/curatime/internal/users"
	"github.com/curatime/curatime/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting curatime API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 10*time.Second)
	defer cancelPing()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Error("failed to ping redis", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("REDIS_ADDR not set, password reset codes are disabled")
	}

	// Metrics registry with process and Go runtime collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	resetCodes := auth.NewResetCodeStore(redisClient, cfg.ResetCodeTTL)

	emailSender := buildEmailSender(ctx, cfg, logger)
	notifyService := notify.NewService(emailSender, cfg.SupportEmail, logger)

	usersRepo := users.NewPostgresRepository(pool)
	specialtiesRepo := specialties.NewPostgresRepository(pool)
	doctorsRepo := doctors.NewPostgresRepository(pool)
	appointmentsRepo := appointments.NewPostgresRepository(pool)
	statsRepo := stats.NewRepository(pool)

	appointmentService := appointments.NewService(appointmentsRepo, doctorsRepo, bookingMetrics, logger)

	usersHandler := users.NewHandler(usersRepo, tokens, resetCodes, notifyService, doctorsRepo, bookingMetrics, logger)
	specialtiesHandler := specialties.NewHandler(specialtiesRepo, logger)
	doctorsHandler := doctors.NewHandler(doctorsRepo, appointmentsRepo, specialtiesRepo, usersRepo, bookingMetrics, logger, cfg.SlotPreviewCount)
	appointmentsHandler := appointments.NewHandler(appointmentService, appointmentsRepo, doctorsRepo, logger)
	statsHandler := stats.NewHandler(statsRepo, doctorsRepo, logger)
	notifyHandler := notify.NewHandler(notifyService, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		Tokens:              tokens,
		UsersHandler:        usersHandler,
		DoctorsHandler:      doctorsHandler,
		SpecialtiesHandler:  specialtiesHandler,
		AppointmentsHandler: appointmentsHandler,
		StatsHandler:        statsHandler,
		NotifyHandler:       notifyHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		LoginRatePerSecond:  cfg.LoginRatePerSecond,
		LoginBurst:          cfg.LoginRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildEmailSender picks the delivery backend from EMAIL_PROVIDER. With no
// provider configured messages are logged instead of sent.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty, falling back to log-only delivery")
			return nil
		}
		return sender
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		if cfg.EmailProvider != "" {
			logger.Warn("unknown email provider, falling back to log-only delivery", "provider", cfg.EmailProvider)
		}
		return nil
	}
}
