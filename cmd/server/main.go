package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swiftaza/internal/config"
	"swiftaza/internal/infra"
	"swiftaza/internal/router"
	"swiftaza/internal/worker"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env}); err != nil {
			log.Error().Err(err).Msg("sentry init failed, continuing without it")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to connect to database")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	events, err := infra.NewPublisher(cfg.AMQPURL)
	if err != nil {
		log.Error().Err(err).Msg("amqp unavailable, domain events disabled")
		events = infra.NopPublisher{}
	}
	defer events.Close()

	// Background work: the mail queue consumer plus periodic sweeps.
	// Handlers are wired here so the pool can reach every infra dependency.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	smtpCB := infra.NewCircuitBreaker(infra.SMTPBreakerConfig())
	mailer := infra.NewMailer(cfg, smtpCB)
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, verification mail will dead-letter")
	}

	pool := worker.NewPool(rdb)
	pool.Register(worker.JobTypeEmail, worker.NewEmailWorker(mailer))
	pool.Start(ctx, cfg.WorkerPoolSize)

	app := router.New(cfg, db, rdb, events, smtpCB)

	worker.StartCodeSweeper(ctx, app.Verification)
	worker.StartEmailRedrive(ctx, rdb, smtpCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.Engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("env", cfg.Env).Msgf("swiftaza listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	pool.Wait()
	_ = rdb.Close()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
