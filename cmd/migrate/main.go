package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"prophet-betting/internal/config"
	"prophet-betting/internal/database"
	"prophet-betting/internal/logger"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the .sql migrations")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("prophet-migrate", cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Database.Driver != "postgres" {
		log.Fatal("sql migrations target postgres; sqlite databases are migrated on startup",
			zap.String("driver", cfg.Database.Driver))
	}

	// Connect to database
	db, err := database.OpenPostgres(cfg.GetDSN())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	applied, err := database.RunMigrations(ctx, db, *dir, log)
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migrations complete", zap.Int("applied", len(applied)), zap.Strings("files", applied))
}
