package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"catchup-feed/internal/app"
	"catchup-feed/internal/infra/db"
	"catchup-feed/internal/infra/fetcher"
	"catchup-feed/internal/infra/scraper"
	workerPkg "catchup-feed/internal/infra/worker"
	"catchup-feed/internal/scheduler"
	"catchup-feed/internal/usecase/ingest"
)

func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM sources LIMIT 1"
	for i := 0; i < 10; i++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for migrations, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := initLogger()
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerMetrics.MustRegister()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("health_port", workerConfig.HealthPort))

	components := app.Build(logger, database)

	startMetricsServer(ctx, logger, components.Notify)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	ingestSvc := setupIngestService(logger, components)

	schedulerCfg := scheduler.DefaultConfig()
	schedulerCfg.Timezone = workerConfig.Timezone
	sched := scheduler.New(schedulerCfg, ingestSvc, components.Summarizer, components.Trainer, components.Cache, components.Articles)

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.Duration("crawl_interval", schedulerCfg.CrawlInterval),
		slog.String("timezone", schedulerCfg.Timezone))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down worker...")

	shutdownCtx := sched.Stop()
	<-shutdownCtx.Done()
	cancel()
	logger.Info("worker stopped")
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and waits for migrations to complete.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	return database
}

// setupIngestService wires the RSS crawl orchestrator against the shared
// repositories, the readability content fetcher, and the notification
// service built in internal/app.
func setupIngestService(logger *slog.Logger, components *app.Components) *ingest.Service {
	httpClient := createHTTPClient()
	feeds := ingest.RSSFeedFetcher{Inner: scraper.NewRSSFetcher(httpClient)}

	var content ingest.ArticleFetcher
	contentFetchConfig, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("failed to load content fetch configuration, content fetching disabled", slog.Any("error", err))
	} else if contentFetchConfig.Enabled {
		content = ingest.ReadabilityArticleFetcher{Inner: fetcher.NewReadabilityFetcher(contentFetchConfig)}
		logger.Info("content fetching enabled",
			slog.Int("threshold", contentFetchConfig.Threshold),
			slog.Int("parallelism", contentFetchConfig.Parallelism),
			slog.Duration("timeout", contentFetchConfig.Timeout))
	} else {
		logger.Info("content fetching disabled")
	}

	return &ingest.Service{
		Sources:    components.Sources,
		Articles:   components.Articles,
		Feeds:      feeds,
		Content:    content,
		Lean:       components.Lean,
		Normalizer: components.Normalizer,
		Notify:     components.Notify,
	}
}

// createHTTPClient creates an HTTP client with timeouts and connection pooling.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
