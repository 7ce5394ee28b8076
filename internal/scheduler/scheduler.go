// Package scheduler implements the in-process cron scheduler (C10): three
// single-instance, coalescing jobs driving ingestion, summarization,
// reindexing, and cache precompute. Adapted from cmd/worker's cron wiring
// (robfig/cron), generalized to run named jobs behind per-job state that
// collapses any triggers seen mid-run into exactly one queued follow-up
// run, rather than running concurrently or dropping the trigger.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"catchup-feed/internal/repository"
	"catchup-feed/internal/summarizer"
	"catchup-feed/internal/usecase/cache"
	"catchup-feed/internal/usecase/ingest"
	"catchup-feed/internal/usecase/recommend"
	"catchup-feed/internal/vectorindex"
)

// Config tunes job schedules and batch sizes, matching spec §4.9.
type Config struct {
	Timezone string

	CrawlInterval         time.Duration // default 180m
	RecommendRefreshEvery time.Duration // default 30m
	BootstrapDelay        time.Duration // default 2s

	SummarizeBatchLimit    int           // per crawl_all run, default 200
	RecommendRefreshWindow time.Duration // lookback for periodic refresh, default 72h
	RecommendRefreshCap    int           // default 600
	BootstrapLookback      time.Duration // default 168h (7d)
	BootstrapCap           int           // default 2000

	TrainerBatchSize      int
	TrainerMaxConcurrency int
}

// DefaultConfig returns spec §4.9's default cadence and batch sizes.
func DefaultConfig() Config {
	return Config{
		Timezone:               "UTC",
		CrawlInterval:          180 * time.Minute,
		RecommendRefreshEvery:  30 * time.Minute,
		BootstrapDelay:         2 * time.Second,
		SummarizeBatchLimit:    200,
		RecommendRefreshWindow: 72 * time.Hour,
		RecommendRefreshCap:    600,
		BootstrapLookback:      168 * time.Hour,
		BootstrapCap:           2000,
		TrainerBatchSize:       1000,
		TrainerMaxConcurrency:  4,
	}
}

// jobState tracks a named job's in-flight/pending status so runCoalesced
// can collapse any number of triggers seen mid-run into exactly one
// follow-up run, matching spec §4.9's coalescing-job definition.
type jobState struct {
	mu      sync.Mutex
	running bool
	pending bool
}

// Scheduler runs the C10 jobs.
type Scheduler struct {
	Config Config

	Ingest     *ingest.Service
	Summarizer *summarizer.Batch
	Trainer    *vectorindex.Trainer
	Cache      *cache.Service
	Articles   repository.ArticleRepository

	cron *cron.Cron
	jobs map[string]*jobState
}

// New returns a Scheduler; call Start to begin running jobs.
func New(cfg Config, in *ingest.Service, sum *summarizer.Batch, trainer *vectorindex.Trainer, cacheSvc *cache.Service, articles repository.ArticleRepository) *Scheduler {
	return &Scheduler{
		Config:     cfg,
		Ingest:     in,
		Summarizer: sum,
		Trainer:    trainer,
		Cache:      cacheSvc,
		Articles:   articles,
		jobs: map[string]*jobState{
			"crawl_all":                  {},
			"periodic_recommend_refresh": {},
			"bootstrap_once":             {},
		},
	}
}

// Start registers the three cron jobs and the delayed bootstrap trigger.
func (s *Scheduler) Start(ctx context.Context) error {
	loc, err := time.LoadLocation(s.Config.Timezone)
	if err != nil {
		slog.Warn("scheduler: invalid timezone, using UTC", slog.String("timezone", s.Config.Timezone))
		loc = time.UTC
	}
	s.cron = cron.New(cron.WithLocation(loc))

	if _, err := s.cron.AddFunc(everySpec(s.Config.CrawlInterval), func() {
		s.runCoalesced(ctx, "crawl_all", s.runCrawlAll)
	}); err != nil {
		return fmt.Errorf("scheduler: register crawl_all: %w", err)
	}

	if _, err := s.cron.AddFunc(everySpec(s.Config.RecommendRefreshEvery), func() {
		s.runCoalesced(ctx, "periodic_recommend_refresh", s.runPeriodicRefresh)
	}); err != nil {
		return fmt.Errorf("scheduler: register periodic_recommend_refresh: %w", err)
	}

	s.cron.Start()

	go func() {
		select {
		case <-time.After(s.Config.BootstrapDelay):
			s.runCoalesced(ctx, "bootstrap_once", s.runBootstrap)
		case <-ctx.Done():
		}
	}()

	return nil
}

// Stop halts the cron scheduler, returning a context that is done once
// in-flight jobs finish.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// runCoalesced serializes a named job: a trigger seen while the job is
// already running sets a single pending flag rather than running
// concurrently or being dropped. Any number of triggers observed mid-run
// collapse to exactly one follow-up execution once the current run
// completes.
func (s *Scheduler) runCoalesced(ctx context.Context, name string, fn func(context.Context)) {
	js := s.jobs[name]

	js.mu.Lock()
	if js.running {
		js.pending = true
		js.mu.Unlock()
		slog.Debug("scheduler: job already running, queuing one follow-up run", slog.String("job", name))
		return
	}
	js.running = true
	js.mu.Unlock()

	for {
		start := time.Now()
		slog.Info("scheduler: job started", slog.String("job", name))
		fn(ctx)
		slog.Info("scheduler: job finished", slog.String("job", name), slog.Duration("duration", time.Since(start)))

		js.mu.Lock()
		if js.pending {
			js.pending = false
			js.mu.Unlock()
			continue
		}
		js.running = false
		js.mu.Unlock()
		return
	}
}

// runCrawlAll implements crawl_all: ingest, summarize up to N, full reindex.
func (s *Scheduler) runCrawlAll(ctx context.Context) {
	if _, err := s.Ingest.CrawlAll(ctx); err != nil {
		slog.Warn("scheduler: crawl_all ingest failed", slog.String("error", err.Error()))
		return
	}
	if _, err := s.Summarizer.UpdateMissing(ctx, s.Config.SummarizeBatchLimit, false); err != nil {
		slog.Warn("scheduler: crawl_all summarize failed", slog.String("error", err.Error()))
	}
	if _, err := s.Trainer.Reindex(ctx); err != nil {
		slog.Warn("scheduler: crawl_all reindex failed", slog.String("error", err.Error()))
	}
}

// runPeriodicRefresh implements periodic_recommend_refresh.
func (s *Scheduler) runPeriodicRefresh(ctx context.Context) {
	s.precompute(ctx, s.Config.RecommendRefreshWindow, s.Config.RecommendRefreshCap)
}

// runBootstrap implements bootstrap_once: full pipeline then a larger precompute.
// The crawl runs through the crawl_all job state so it can never overlap a
// concurrent crawl_all cron tick; if one is already in flight this just
// queues crawl_all's follow-up run instead of running a second copy.
func (s *Scheduler) runBootstrap(ctx context.Context) {
	s.runCoalesced(ctx, "crawl_all", s.runCrawlAll)
	s.precompute(ctx, s.Config.BootstrapLookback, s.Config.BootstrapCap)
}

func (s *Scheduler) precompute(ctx context.Context, lookback time.Duration, maxItems int) {
	result, err := s.Cache.Precompute(ctx, s.Articles, recommend.DefaultParams(), int(lookback.Hours()), maxItems)
	if err != nil {
		slog.Warn("scheduler: precompute failed", slog.String("error", err.Error()))
		return
	}
	slog.Info("scheduler: precompute done", slog.Int("scanned", result.Scanned), slog.Int("cached", result.Cached))
}

func everySpec(d time.Duration) string {
	if d <= 0 {
		d = time.Minute
	}
	return fmt.Sprintf("@every %s", d)
}
