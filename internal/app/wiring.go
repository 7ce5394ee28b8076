// Package app builds the shared set of components used by both process
// entry points (cmd/api, cmd/worker): repositories, the recommendation
// engine, the batch summarizer/reindexer, and the optional notification
// service. Keeping this in one place means cmd/api's admin-triggered runs
// and cmd/worker's cron-triggered runs are built from identical wiring.
package app

import (
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	pgRepo "catchup-feed/internal/infra/adapter/persistence/postgres"
	"catchup-feed/internal/infra/notifier"
	infraSummarizer "catchup-feed/internal/infra/summarizer"
	"catchup-feed/internal/lean"
	"catchup-feed/internal/nli"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/summarizer"
	"catchup-feed/internal/urlnorm"
	"catchup-feed/internal/usecase/cache"
	"catchup-feed/internal/usecase/notify"
	"catchup-feed/internal/usecase/recommend"
	"catchup-feed/internal/vectorindex"
	"catchup-feed/pkg/config"
)

// Components holds every shared dependency wired against the database.
type Components struct {
	Articles  repository.ArticleRepository
	Sources   repository.SourceRepository
	Store     repository.VectorStore
	Holder    *vectorindex.Holder
	Lean      *lean.Table
	Normalizer *urlnorm.Normalizer
	Notify    notify.Service

	Recommend  *recommend.Service
	Cache      *cache.Service
	Summarizer *summarizer.Batch
	Trainer    *vectorindex.Trainer
}

// Build constructs every shared component from environment configuration.
// Both cmd/api and cmd/worker call this so admin-triggered and
// cron-triggered runs share identical behavior.
func Build(logger *slog.Logger, database *sql.DB) *Components {
	articles := pgRepo.NewArticleRepo(database)
	sources := pgRepo.NewSourceRepo(database)
	cacheRepo := pgRepo.NewCacheRepo(database)
	store := vectorindex.NewPgvectorStore(database)

	leanPath := config.GetEnvString("LEAN_TABLE_PATH", "config/sources.yaml")
	leanTable, err := lean.LoadTableFromFile(leanPath)
	if err != nil {
		logger.Error("failed to load lean taxonomy, continuing with an empty table",
			slog.String("path", leanPath), slog.Any("error", err))
		leanTable = lean.NewTable(nil)
	}

	normalizer := urlnorm.New(urlnorm.NewHTTPAggregatorResolver())

	vectorizerPath := config.GetEnvString("VECTORIZER_PATH", "data/vectorizer.json")
	holder := vectorindex.NewHolder(vectorizerPath)

	nliScorer := buildNLIScorer(logger)
	summarizerSvc := summarizer.New(buildAbstractiveBackend(logger))
	notifyService := buildNotifyService(logger)

	rec := &recommend.Service{
		Articles:   articles,
		Store:      store,
		Vectorizer: holder,
		Lean:       leanTable,
		NLI:        nliScorer,
		Summarizer: summarizerSvc,
		Normalizer: normalizer,
	}

	cacheTTL := config.GetEnvDuration("RECOMMEND_CACHE_TTL", 30*time.Minute)
	cacheSvc := cache.New(cacheRepo, rec, normalizer, cacheTTL)

	batch := &summarizer.Batch{
		DB:       database,
		Articles: articles,
		Service:  summarizerSvc,
	}

	trainer := &vectorindex.Trainer{
		Articles:       articles,
		Store:          store,
		VectorizerPath: vectorizerPath,
		BatchSize:      config.GetEnvInt("VECTORINDEX_BATCH_SIZE", 500),
		MaxConcurrency: config.GetEnvInt("VECTORINDEX_MAX_CONCURRENCY", 4),
	}

	return &Components{
		Articles:   articles,
		Sources:    sources,
		Store:      store,
		Holder:     holder,
		Lean:       leanTable,
		Normalizer: normalizer,
		Notify:     notifyService,
		Recommend:  rec,
		Cache:      cacheSvc,
		Summarizer: batch,
		Trainer:    trainer,
	}
}

// buildNLIScorer wires the HTTP NLI client when NLI_BASE_URL is configured,
// falling back to the always-neutral Noop scorer otherwise.
func buildNLIScorer(logger *slog.Logger) nli.Scorer {
	baseURL := config.GetEnvString("NLI_BASE_URL", "")
	if baseURL == "" {
		logger.Info("NLI_BASE_URL not set, using noop stance scorer")
		return nli.Noop{}
	}
	timeout := config.GetEnvDuration("NLI_TIMEOUT", 5*time.Second)
	maxTokens := config.GetEnvInt("NLI_MAX_TOKENS", 512)
	logger.Info("NLI client configured", slog.String("base_url", baseURL))
	return nli.NewHTTPClient(baseURL, timeout, maxTokens)
}

// buildAbstractiveBackend mirrors the teacher's SUMMARIZER_TYPE switch,
// falling back to the extractive/lead chain when no key is configured.
func buildAbstractiveBackend(logger *slog.Logger) summarizer.AbstractiveBackend {
	summarizerType := config.GetEnvString("SUMMARIZER_TYPE", "")
	switch summarizerType {
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			logger.Warn("ANTHROPIC_API_KEY not set, abstractive summarization disabled")
			return summarizer.NoopBackend{}
		}
		return summarizer.NewAbstractiveBackend(infraSummarizer.NewClaude(apiKey))
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			logger.Warn("OPENAI_API_KEY not set, abstractive summarization disabled")
			return summarizer.NoopBackend{}
		}
		cfg, err := infraSummarizer.LoadOpenAIConfig()
		if err != nil {
			logger.Warn("invalid OpenAI configuration, abstractive summarization disabled", slog.Any("error", err))
			return summarizer.NoopBackend{}
		}
		return summarizer.NewAbstractiveBackend(infraSummarizer.NewOpenAI(apiKey, cfg))
	default:
		logger.Info("SUMMARIZER_TYPE not set, using extractive/lead summarization only")
		return summarizer.NoopBackend{}
	}
}

// buildNotifyService wires Discord/Slack notification channels the same
// way the teacher's worker did, generalized to fire on every new article
// this module ingests.
func buildNotifyService(logger *slog.Logger) notify.Service {
	var channels []notify.Channel
	if discordCfg := loadDiscordConfig(logger); discordCfg.Enabled {
		channels = append(channels, notify.NewDiscordChannel(discordCfg))
		logger.Info("Discord notification channel enabled")
	}
	if slackCfg := loadSlackConfig(logger); slackCfg.Enabled {
		channels = append(channels, notify.NewSlackChannel(slackCfg))
		logger.Info("Slack notification channel enabled")
	}
	maxConcurrent := config.GetEnvInt("NOTIFY_MAX_CONCURRENT", 5)
	return notify.NewService(channels, maxConcurrent)
}

func loadDiscordConfig(logger *slog.Logger) notifier.DiscordConfig {
	if os.Getenv("DISCORD_ENABLED") != "true" {
		return notifier.DiscordConfig{Enabled: false}
	}
	webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "discord.com" || !strings.HasPrefix(u.Path, "/api/webhooks/") {
		logger.Warn("invalid Discord webhook configuration, disabling Discord notifications")
		return notifier.DiscordConfig{Enabled: false}
	}
	return notifier.DiscordConfig{Enabled: true, WebhookURL: webhookURL, Timeout: 30 * time.Second}
}

func loadSlackConfig(logger *slog.Logger) notifier.SlackConfig {
	if os.Getenv("SLACK_ENABLED") != "true" {
		return notifier.SlackConfig{Enabled: false}
	}
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	u, err := url.Parse(webhookURL)
	if err != nil || u.Scheme != "https" || u.Host != "hooks.slack.com" || !strings.HasPrefix(u.Path, "/services/") {
		logger.Warn("invalid Slack webhook configuration, disabling Slack notifications")
		return notifier.SlackConfig{Enabled: false}
	}
	return notifier.SlackConfig{Enabled: true, WebhookURL: webhookURL, Timeout: 30 * time.Second}
}
