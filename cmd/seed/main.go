// Command seed loads the starter product catalogue into the database. It
// reads the same environment as the API server and can be run repeatedly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/techpulse/marketplace/internal/config"
	"github.com/techpulse/marketplace/internal/database"
	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/repository"
	"github.com/techpulse/marketplace/internal/seed"
	"github.com/techpulse/marketplace/internal/service"
)

func main() {
	cfg := config.Load()
	logFile := logger.Init(logger.Options{
		Service: "techpulse-seed",
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDev(),
	})
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error(ctx).Err(err).Msg("seed failed")
		stop()
		_ = logFile.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	res, err := seed.Run(ctx, service.NewProductService(repository.NewProductRepo(db)))
	if err != nil {
		return err
	}
	ev := logger.Info(ctx).Int("created", res.Created).Int("skipped", res.Skipped)
	for category, n := range res.ByCategory {
		ev = ev.Int(category, n)
	}
	ev.Msg("products seeded")
	return nil
}
