// FraudLens - Real-time fraud scoring with ranked explanations.
// Copyright (c) 2025 fraudlens
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fraudlens/fraudlens/internal/api"
	"github.com/fraudlens/fraudlens/internal/artifact"
	"github.com/fraudlens/fraudlens/internal/bus"
	"github.com/fraudlens/fraudlens/internal/cache"
	"github.com/fraudlens/fraudlens/internal/domain"
	"github.com/fraudlens/fraudlens/internal/history"
	"github.com/fraudlens/fraudlens/internal/pipeline"
	"github.com/fraudlens/fraudlens/internal/policy"
	"github.com/fraudlens/fraudlens/internal/realtime"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("FRAUDLENS_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting fraudlens",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg := loadConfig()

	slog.Info("configuration loaded",
		"artifacts", cfg.Artifacts.Dir,
		"background_driver", cfg.Artifacts.BackgroundDriver,
		"schema", cfg.Inference.Schema,
		"explainability", cfg.Inference.Explainability,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load frozen artifacts. Starting without them would mean serving
	// garbage scores, so any failure here is fatal.
	bundle, err := artifact.Load(cfg.Artifacts)
	if err != nil {
		slog.Error("failed to load artifacts", "error", err)
		os.Exit(1)
	}
	slog.Info("artifacts loaded",
		"features", len(bundle.Model.FeatureOrder()),
		"threshold", bundle.Model.Threshold(),
		"background_rows", bundle.Background.Rows(),
	)

	pipe, err := pipeline.New(cfg.Inference, bundle.Scaler, bundle.Model, bundle.Background)
	if err != nil {
		slog.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}
	slog.Info("inference pipeline initialized", "top_k", cfg.Inference.TopK)

	triage, err := policy.NewEngine(cfg.Policy.Expression)
	if err != nil {
		slog.Error("failed to compile triage policy", "error", err)
		os.Exit(1)
	}
	if triage.Enabled() {
		slog.Info("triage policy enabled", "expression", cfg.Policy.Expression)
	}

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	if cacheImpl != nil {
		defer cacheImpl.Close()
	}
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	recorder := history.NewRecorder(cfg.History.MaxEntries)
	if err := recorder.Attach(ctx, busImpl); err != nil {
		slog.Error("failed to attach history recorder", "error", err)
		os.Exit(1)
	}
	defer recorder.Close()
	slog.Info("history recorder initialized", "max_entries", cfg.History.MaxEntries)

	hub := realtime.NewHub(logger)
	if err := hub.Attach(ctx, busImpl); err != nil {
		slog.Error("failed to attach realtime hub", "error", err)
		os.Exit(1)
	}
	go hub.Run(ctx)

	srv := api.NewServer(cfg.Server, pipe, cacheImpl, busImpl, triage, recorder, hub, Version, cfg.Cache.ResultTTL)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("fraudlens is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("fraudlens shutdown complete")
}

// loadConfig builds the runtime configuration from defaults plus
// environment overrides.
func loadConfig() *domain.Config {
	cfg := domain.DefaultConfig()

	if os.Getenv("FRAUDLENS_MODE") == "distributed" {
		cfg = domain.DistributedConfig()
		slog.Info("running in distributed mode")
	}

	if dir := os.Getenv("FRAUDLENS_ARTIFACTS"); dir != "" {
		cfg.Artifacts.Dir = dir
	}
	if driver := os.Getenv("FRAUDLENS_BACKGROUND_DRIVER"); driver != "" {
		cfg.Artifacts.BackgroundDriver = driver
		if driver == "sqlite" && cfg.Artifacts.BackgroundFile == "background.csv" {
			cfg.Artifacts.BackgroundFile = "background.db"
		}
	}
	if port := os.Getenv("FRAUDLENS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if schema := os.Getenv("FRAUDLENS_SCHEMA"); schema != "" {
		cfg.Inference.Schema = domain.SchemaPolicy(schema)
	}
	if explain := os.Getenv("FRAUDLENS_EXPLAIN"); explain != "" {
		cfg.Inference.Explainability = domain.ExplainabilityPolicy(explain)
	}
	if topK := os.Getenv("FRAUDLENS_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil && k > 0 {
			cfg.Inference.TopK = k
		}
	}
	if expr := os.Getenv("FRAUDLENS_POLICY"); expr != "" {
		cfg.Policy.Expression = expr
	}
	if addr := os.Getenv("FRAUDLENS_REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if url := os.Getenv("FRAUDLENS_NATS_URL"); url != "" {
		cfg.EventBus.NATSUrl = url
	}

	return cfg
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  FraudLens - fraud scoring with explanations")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST   /predict  - Score a transaction")
	fmt.Println("    GET    /history  - Recent predictions")
	fmt.Println("    DELETE /history  - Clear prediction history")
	fmt.Println("    GET    /ws       - Live prediction feed")
	fmt.Println("    GET    /metrics  - Prometheus metrics")
	fmt.Println("    GET    /health   - Health check")
	fmt.Println()
}
