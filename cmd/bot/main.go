package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"nutricoach"
	"nutricoach/artifact"
	"nutricoach/catalog"
	"nutricoach/chart"
	"nutricoach/commands"
	"nutricoach/dialog"
	"nutricoach/ledger"
	"nutricoach/telegram"
	"nutricoach/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Info("SETUP: No .env file found, relying on environment")
	}

	var botCfg nutricoach.BotConfig
	if err := envdecode.Decode(&botCfg); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var engineCfg nutricoach.EngineConfig
	if err := envdecode.Decode(&engineCfg); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	if botCfg.Debug {
		nutricoach.Dump(engineCfg)
	}

	flowLogger, cleanup, err := newFlowLogger(botCfg.FlowLogPath)
	if err != nil {
		slog.Error("SETUP: Failed to create flow logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush flow log", "error", err)
		}
	}()

	artifacts, err := newArtifactStore(ctx, botCfg)
	if err != nil {
		slog.Error("SETUP: Failed to create artifact store", "error", err)
		return
	}

	tracerProvider, meterProvider, otelShutdown, err := nutricoach.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	upstreamTimeout := time.Duration(engineCfg.UpstreamTimeoutSeconds) * time.Second
	registry := commands.NewRegistry()

	orchestrator := dialog.NewOrchestrator(dialog.OrchestratorOpts{
		Store:          ledger.NewStore(),
		Registry:       registry,
		Catalog:        catalog.NewClient(engineCfg.CatalogBaseURL, upstreamTimeout),
		Weather:        weather.NewClient(engineCfg.WeatherBaseURL, engineCfg.OpenWeatherAPIKey, upstreamTimeout),
		Charts:         chart.NewRenderer(),
		Artifacts:      artifacts,
		FlowLogger:     flowLogger,
		CandidateLimit: engineCfg.FoodCandidateLimit,
	})

	instrumented := dialog.NewInstrumentedOrchestrator(
		orchestrator,
		tracerProvider.Tracer(nutricoach.TracerNameDialog),
		meterProvider.Meter(nutricoach.TracerNameDialog),
	)

	bot, err := telegram.New(botCfg.TelegramToken, instrumented, botCfg.Debug)
	if err != nil {
		slog.Error("SETUP: Failed to create telegram bot", "error", err)
		return
	}
	if err := bot.RegisterCommands(registry); err != nil {
		slog.Error("SETUP: Failed to register bot commands", "error", err)
		return
	}

	sessionTTL := time.Duration(engineCfg.SessionTTLMinutes) * time.Minute
	slog.Info("SETUP: Starting bot", "session_ttl", sessionTTL, "candidate_limit", engineCfg.FoodCandidateLimit)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(ctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				instrumented.EvictStale(sessionTTL)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Bot stopped", "error", err)
		return
	}
	slog.Info("Bot stopped")
}

func newFlowLogger(path string) (nutricoach.FlowLogger, func() error, error) {
	switch path {
	case "":
		return nutricoach.NewNoOpFlowLogger(), func() error { return nil }, nil
	case "-":
		return nutricoach.NewStdoutFlowLogger(), func() error { return nil }, nil
	case "auto":
		path = nutricoach.NewFlowLogFilePath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create flow log directory: %w", err)
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open flow log file: %w", err)
	}

	logger := nutricoach.NewFileFlowLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

// newArtifactStore assembles the chart archive destinations; a nil store
// means archiving is disabled.
func newArtifactStore(ctx context.Context, cfg nutricoach.BotConfig) (artifact.Store, error) {
	var stores artifact.Multi

	if cfg.ChartArchiveDir != "" {
		stores = append(stores, artifact.NewFileStore(cfg.ChartArchiveDir))
	}

	if cfg.ChartArchiveS3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		stores = append(stores, artifact.NewS3Store(s3.NewFromConfig(awsCfg), cfg.ChartArchiveS3Bucket, cfg.ChartArchiveS3Prefix))
	}

	switch len(stores) {
	case 0:
		return nil, nil
	case 1:
		return stores[0], nil
	default:
		return stores, nil
	}
}
