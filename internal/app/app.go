package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/infrastructure/llm"
	"ContentCurator/internal/infrastructure/parser"
	"ContentCurator/internal/infrastructure/scheduler"
	"ContentCurator/internal/infrastructure/storage/memory"
	"ContentCurator/internal/infrastructure/storage/redisstore"
	"ContentCurator/internal/infrastructure/storage/sqlstore"
	"ContentCurator/internal/infrastructure/telegram"
	"ContentCurator/internal/logging"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/retry"
	"ContentCurator/internal/scanner"
	"ContentCurator/internal/scoring"
	"ContentCurator/internal/textutil"
	"ContentCurator/internal/usecase"
)

// Configuration faults detected while wiring.
var (
	ErrUnknownStore    = errors.New("unknown store driver")
	ErrUnknownProvider = errors.New("unknown llm provider")
)

const (
	fetchTimeout    = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     ports.Store
	cycle     *usecase.Cycle
	scheduler *usecase.Scheduler
}

// New builds a runnable application. Only store or scheduler setup errors
// are returned; a missing model key degrades scoring instead.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.Discard()
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	baseLogger.Info("store ready", "driver", cfg.Store.Driver)

	httpClient := &http.Client{Timeout: fetchTimeout}
	tagger := textutil.NewTagger(cfg.Ingestion.Keywords, cfg.Ingestion.MaxTags)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewRSSScanner(httpClient, tagger, baseLogger.With("component", "scanner.rss")))
	registry.Register(parser.NewRedditScanner(cfg.Reddit, httpClient, tagger, baseLogger.With("component", "scanner.reddit")))
	registry.Register(parser.NewArxivScanner(httpClient, tagger, baseLogger.With("component", "scanner.arxiv")))

	source := parser.NewStrategySource(registry, cfg.Sources, baseLogger.With("component", "source"))

	completer, err := newCompleter(ctx, cfg.LLM)
	if err != nil {
		baseLogger.Warn("generative endpoint unavailable, items will carry the failed score", "provider", cfg.LLM.Provider, "error", err)
	}

	gate := retry.NewGate(cfg.Scoring.Spacing())
	caller := retry.NewCaller(gate, retry.Policy{
		MaxAttempts:  cfg.Scoring.MaxAttempts,
		DefaultDelay: cfg.Scoring.RetryDelay(),
		SafetyMargin: cfg.Scoring.Margin(),
		Indicators:   cfg.Scoring.RateLimitIndicators,
	}, baseLogger.With("component", "retry"))

	scorer := scoring.NewScorer(completer, caller, scoring.Config{
		SystemPrompt:    cfg.LLM.ScoringPrompt,
		MinScore:        cfg.Scoring.MinScore,
		MaxContentChars: cfg.Scoring.MaxContentChars,
	}, baseLogger.With("component", "scoring"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:         source,
		Store:          store,
		Scorer:         scorer,
		Logger:         baseLogger,
		PerSourceLimit: cfg.Ingestion.PerSourceLimit,
		ScoringEnabled: cfg.Ingestion.ScoringEnabled(),
	})

	var reels *usecase.ReelStage
	if cfg.Reels.IsEnabled() && completer != nil {
		reels = usecase.NewReelStage(store, completer, caller, usecase.ReelConfig{
			PerIdea:    cfg.Reels.PerIdea,
			BatchLimit: cfg.Reels.BatchLimit,
			Prompt:     cfg.LLM.ReelPrompt,
		}, baseLogger)
	}

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram, nil); tg.Enabled() {
		notifier = tg
	}

	cycle := usecase.NewCycle(pipeline, reels, notifier, baseLogger)

	driver, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger.With("component", "app"),
		store:     store,
		cycle:     cycle,
		scheduler: usecase.NewScheduler(driver, cycle),
	}, nil
}

// RunOnce executes a single cycle.
func (a *Application) RunOnce(ctx context.Context) domain.CycleSummary {
	return a.cycle.Run(ctx)
}

// Run executes a cycle at start (unless disabled) and then on schedule until
// ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Scheduler.ShouldRunOnStart() {
		a.RunOnce(ctx)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("waiting for scheduled cycles", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler did not stop cleanly", "error", err)
	}
	return nil
}

// Close releases the store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (ports.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres, config.DriverSQLite:
		store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverRedis:
		store, err := redisstore.Open(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Driver)
	}
}

func newCompleter(ctx context.Context, cfg config.LLMConfig) (ports.Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI:
		client, err := llm.NewChatGPTClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGemini, "":
		client, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
