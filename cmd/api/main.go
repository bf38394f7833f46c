package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/config"
	"github.com/obichijioke/eventapp/internal/logging"
	"github.com/obichijioke/eventapp/internal/mail"
	"github.com/obichijioke/eventapp/internal/metrics"
	"github.com/obichijioke/eventapp/internal/server"
	"github.com/obichijioke/eventapp/internal/storage/redis"
	transporthttp "github.com/obichijioke/eventapp/internal/transport/http"
	"github.com/obichijioke/eventapp/internal/worker"
	"github.com/obichijioke/eventapp/migrations"
)

const shutdownTimeout = 10 * time.Second

func setupDB(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return pool, nil
}

// setupRedis returns nil when REDIS_URL is unset; sessions are then read
// straight from Postgres.
func setupRedis(cfg *config.Config) (*goredis.Client, error) {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, session cache disabled")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, logCloser := logging.Init(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	err = run(cfg, logger)
	if err != nil {
		slog.Error("Application failed", "error", err)
	}
	_ = logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every resource opened after logging is up, so deferred cleanup
// happens before main decides the exit code.
func run(cfg *config.Config, logger *slog.Logger) error {
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	proxies, err := cfg.Proxies()
	if err != nil {
		return err
	}

	pool, err := setupDB(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	clk := clock.NewSystem()
	opts := server.Options{
		Clock:         clk,
		HoldTTL:       cfg.HoldTTL,
		SessionTTL:    cfg.SessionTTL,
		WebhookSecret: cfg.PaymentWebhookSecret,
		FeeBPS:        cfg.PlatformFeeBPS,
	}

	checks := []transporthttp.HealthCheck{{Name: "postgres", Check: pool.Ping}}

	// Only set the cache when Redis is configured, to avoid a typed-nil interface.
	redisClient, err := setupRedis(cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		opts.SessionCache = redis.NewSessionCache(redisClient)
		checks = append(checks, transporthttp.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	container := server.NewContainer(pool, opts)

	handler := transporthttp.NewRouter(container.Services(), transporthttp.RouterOptions{
		Logger:       logger,
		Metrics:      m,
		MetricsPath:  metrics.Handler(reg),
		CORSOrigins:  cfg.Origins(),
		AuthLimiter:  transporthttp.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, proxies...),
		HealthChecks: checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var workers sync.WaitGroup
	sweeper := worker.NewHoldSweeper(container.Holds, clk, cfg.SweepInterval, m)
	workers.Add(1)
	go func() {
		defer workers.Done()
		sweeper.Run(ctx)
	}()

	if cfg.MailEnabled() {
		sender := mail.NewSMTPSender(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		mailer := worker.NewMailer(container.Notifications, sender, clk, cfg.MailInterval, m)
		workers.Add(1)
		go func() {
			defer workers.Done()
			mailer.Run(ctx)
		}()
	} else {
		slog.Info("SMTP_HOST not set, notification emails disabled")
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "port", cfg.Port)
		srvErr <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve: %w", err)
		}
		stop()
	case <-ctx.Done():
		slog.Info("Shutdown signal received, cleaning up...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server shutdown error", "error", err)
	}
	workers.Wait()
	slog.Info("Server stopped")
	return serveErr
}
