package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/logger"
	"github.com/yourname/upload_lite/internal/repo/meta"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(logger.Options{LogEncoding: cfg.LogEncoding, LogLevel: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if meta.IsMemoryDSN(cfg.MetaDSN) {
		log.Info("memory meta store selected, skipping migrations")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	applied, err := meta.ApplyMigrations(ctx, cfg.MetaDSN)
	if err != nil {
		log.Error("apply migrations", zap.Error(err))
		return err
	}

	for _, m := range applied {
		log.Info("migration applied", zap.Int64("version", m.Version), zap.String("path", m.Path))
	}
	log.Info("migrations done", zap.Int("applied", len(applied)))

	return nil
}
