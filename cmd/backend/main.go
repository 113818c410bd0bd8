package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/byodlabs/databridge/internal/config"
	"github.com/byodlabs/databridge/internal/db"
	"github.com/byodlabs/databridge/internal/ingestion"
	"github.com/byodlabs/databridge/internal/repository"
	"github.com/byodlabs/databridge/internal/rpc"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Stdout carries protocol frames only; all logging goes to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn.DB); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	priceRepo := repository.NewPriceRepository(conn.DB)
	strategyRepo := repository.NewStrategyRepository(conn.DB)
	importLogRepo := repository.NewImportLogRepository(conn.DB)

	ingestService := ingestion.NewService(priceRepo, importLogRepo, cfg.Import.DefaultSymbol, logger)
	server := rpc.NewServer(os.Stdin, os.Stdout, ingestService, strategyRepo, priceRepo, conn, logger)

	logger.Info("backend started", "database", conn.Path())

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("request loop failed", "error", err)
		os.Exit(1)
	}

	logger.Info("backend shutting down")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
