package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"sites-ingestion-service/internal/broker"
	"sites-ingestion-service/internal/config"
	"sites-ingestion-service/internal/database"
	"sites-ingestion-service/internal/ingest"
	"sites-ingestion-service/internal/logger"
	"sites-ingestion-service/internal/payload"
	"sites-ingestion-service/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Msgf("Failed to migrate database: %v", err)
	}
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to database: %v", err)
	}
	defer pool.Close()
	logger.Info().Msg("Database connection established")

	repo := repository.NewStagingRepo(pool)
	coordinator := ingest.NewCoordinator(logger, repo, payload.NewValidator(), ingest.Options{
		InsertMaxRetries: cfg.InsertMaxRetries,
		BackoffInitial:   time.Duration(cfg.InsertBackoffInitialMs) * time.Millisecond,
		BackoffMax:       time.Duration(cfg.InsertBackoffMaxMs) * time.Millisecond,
	})

	session := broker.NewSession(cfg, logger, coordinator)
	coordinator.SetBroker(session)
	if err := session.Connect(); err != nil {
		logger.Fatal().Msgf("Failed to connect to broker: %v", err)
	}

	coordinator.ReportStats(ctx)

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.StatsIntervalSec) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				coordinator.ReportStats(ctx)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.CleanupIntervalSec) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := repo.Cleanup(ctx, cfg.CleanupRetentionDays)
				if err != nil {
					logger.Error().Err(err).Msg("Retention cleanup failed")
					continue
				}
				if deleted > 0 {
					logger.Info().Int64("deleted", deleted).Int("retention_days", cfg.CleanupRetentionDays).Msg("Retention cleanup completed")
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received, exiting...")

	// Disconnect the broker first so no new messages arrive while the final
	// report runs, then let deferred pool.Close tear down the store.
	session.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	coordinator.ReportStats(shutdownCtx)

	logger.Info().Msg("Ingestion service shut down gracefully")
}
