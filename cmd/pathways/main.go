package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/cli"
	"github.com/alexanderramin/pathways/internal/config"
	"github.com/alexanderramin/pathways/internal/db"
	"github.com/alexanderramin/pathways/internal/events"
	"github.com/alexanderramin/pathways/internal/httpapi"
	"github.com/alexanderramin/pathways/internal/intelligence"
	"github.com/alexanderramin/pathways/internal/llm"
	"github.com/alexanderramin/pathways/internal/lock"
	"github.com/alexanderramin/pathways/internal/metrics"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/search"
	"github.com/alexanderramin/pathways/internal/service"
	"github.com/alexanderramin/pathways/internal/state"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("PATHWAYS_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := newLogger(os.Stderr, cfg.Log)

	dialect, err := cfg.Dialect()
	if err != nil {
		return err
	}
	database, err := db.Open(ctx, dialect, cfg.DSN())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	pathwayRepo := repository.NewSQLPathwayRepo(database)
	profileRepo := repository.NewSQLProfileRepo(database)
	milestoneRepo := repository.NewSQLUserMilestoneRepo(database)
	uow := db.NewSQLUnitOfWork(database, dialect)

	seed, err := catalog.LoadSeedOrDefault(cfg.Catalog.SeedPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	loader := catalog.NewLoader(pathwayRepo, seed.Rules, cfg.Catalog.TTL)
	store := state.NewStore(profileRepo, milestoneRepo, cfg.State.TTL)

	var locker lock.Locker = lock.NewMemory()
	if cfg.Redis.URL != "" {
		r, err := lock.NewRedis(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer r.Close()
		locker = r.WithLogger(logger)
	}

	m := metrics.New()
	publishers := events.Multi{events.NewLogPublisher(logger), m}
	if cfg.NATS.URL != "" {
		nc, err := events.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer nc.Close()
		publishers = append(publishers, nc)
	}

	var meili *search.Meili
	if cfg.Search.MeiliURL != "" {
		meili = search.NewMeili(cfg.Search.MeiliURL, cfg.Search.MeiliKey, logger)
	}
	searchSvc := search.NewService(meili, logger)

	// Wire services
	observers := []service.UseCaseObserver{service.NewSlogUseCaseObserver(logger), m}
	opts := service.MutationOptions{WriteTimeout: cfg.State.WriteTimeout, LockTTL: cfg.State.LockTTL}
	pathwaySvc := service.NewPathwayService(pathwayRepo, loader, uow, searchSvc, observers...)

	if err := seedIfEmpty(ctx, pathwaySvc, seed, logger); err != nil {
		return err
	}

	app := &cli.App{
		Profiles:   service.NewProfileService(profileRepo, store, opts, observers...),
		Pathways:   pathwaySvc,
		Dashboard:  service.NewDashboardService(loader, store, profileRepo, progress.NewTracker(), publishers, logger, observers...),
		Milestones: service.NewMilestoneService(loader, store, profileRepo, milestoneRepo, locker, opts, observers...),
		Addr:       cfg.HTTP.Addr,
	}

	// Model-backed features degrade to deterministic fallbacks when disabled.
	llmCfg := llm.LoadConfig()
	llmObserver := llm.MultiObserver{m}
	if llmCfg.LogCalls {
		llmObserver = append(llmObserver, llm.NewLogObserver(logger))
	}
	client := llm.NewClient(llmCfg, llmObserver)
	app.Intent = intelligence.NewIntentService(client, loader, llmCfg.MinConfidence)
	app.Drafts = intelligence.NewMilestoneDraftService(client, pathwaySvc)
	app.Assistant = intelligence.NewAssistantService(client)

	server := httpapi.NewServer(httpapi.Deps{
		Dashboard:  app.Dashboard,
		Milestones: app.Milestones,
		Pathways:   pathwaySvc,
		Assistant:  app.Assistant,
		Metrics:    m.Handler(),
		Logger:     logger,
	})
	app.Serve = server.ListenAndServe

	// Detect interactive terminal for forms and the TUI.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// seedIfEmpty loads the configured catalog into a fresh database.
func seedIfEmpty(ctx context.Context, pathways service.PathwayService, seed *catalog.Seed, logger *slog.Logger) error {
	existing, err := pathways.List(ctx)
	if err != nil {
		return fmt.Errorf("listing pathways: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	n, err := pathways.Seed(ctx, seed)
	if err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	logger.Info("catalog_seeded", "pathways", n)
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
