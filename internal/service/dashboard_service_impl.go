package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/events"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/state"
	"golang.org/x/sync/errgroup"
)

type dashboardService struct {
	registry  RegistrySource
	store     *state.Store
	profiles  repository.ProfileRepo
	tracker   *progress.Tracker
	publisher events.Publisher
	logger    *slog.Logger
	observer  UseCaseObserver

	// writeTimeout bounds the config-key migration write.
	writeTimeout time.Duration

	// migrated remembers logged config-key moves so each is logged once.
	migrated sync.Map
}

func NewDashboardService(
	registry RegistrySource,
	store *state.Store,
	profiles repository.ProfileRepo,
	tracker *progress.Tracker,
	publisher events.Publisher,
	logger *slog.Logger,
	observers ...UseCaseObserver,
) DashboardService {
	if tracker == nil {
		tracker = progress.NewTracker()
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &dashboardService{
		registry:  registry,
		store:     store,
		profiles:  profiles,
		tracker:   tracker,
		publisher: publisher,
		logger:    logger,
		observer:  useCaseObserverOrNoop(observers),

		writeTimeout: DefaultWriteTimeout,
	}
}

func (s *dashboardService) Load(ctx context.Context, req contract.DashboardRequest) (resp *contract.DashboardResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": req.UserID}
	defer func() {
		observe(ctx, s.observer, "load-dashboard", startedAt, err, fields)
	}()

	if req.UserID == "" {
		return nil, validationError("user id is required")
	}
	now := time.Now().UTC()
	if req.Now != nil {
		now = *req.Now
	}

	var (
		reg  *catalog.Registry
		snap *state.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.registry.Registry(gctx)
		reg = r
		return err
	})
	g.Go(func() error {
		sn, err := s.store.Get(gctx, req.UserID)
		snap = sn
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolutions := reg.ResolveAll(snap.Profile.PathwayRefs, snap.Profile.Specialty)
	migrations, err := s.migrateConfigKeys(ctx, req.UserID, snap.Profile, resolutions)
	if err != nil {
		return nil, err
	}
	if len(migrations) > 0 {
		// reread so cards see the id-keyed configs
		if snap, err = s.store.Get(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	resp = &contract.DashboardResponse{
		UserID:      snap.Profile.ID,
		DisplayName: snap.Profile.DisplayName,
		Specialty:   snap.Profile.Specialty,
		Cards:       []contract.PathwayCard{},
		Migrated:    migrations,
		GeneratedAt: now,
	}
	for _, res := range resolutions {
		if req.PathwayID != "" && res.Pathway.ID != req.PathwayID {
			continue
		}
		card := buildCard(res, snap)
		card.Crossed = s.tracker.Observe(trackerKey(req.UserID, card.PathwayID), card.Progress.PercentComplete)
		s.publishCrossings(ctx, req.UserID, card, now)
		resp.Cards = append(resp.Cards, card)
	}
	if req.PathwayID != "" && len(resp.Cards) == 0 {
		return nil, notFollowed(req.PathwayID)
	}
	fields["cards"] = len(resp.Cards)
	return resp, nil
}

func trackerKey(userID, pathwayID string) string {
	return userID + "/" + pathwayID
}

// buildCard reconciles one resolved pathway with the user's state.
func buildCard(res catalog.Resolution, snap *state.Snapshot) contract.PathwayCard {
	p := res.Pathway
	cfg := configFor(snap.Profile, res)
	items := progress.Sort(progress.Unify(progress.UnifyInput{
		Pathway:    p,
		SourceName: res.SourceName,
		Statuses:   snap.Statuses,
		Customs:    snap.Profile.CustomMilestones,
		Config:     cfg,
	}), cfg.MilestoneOrder, p)
	if items == nil {
		items = []domain.UnifiedItem{}
	}
	summary := progress.Summarize(p, snap.Statuses)

	return contract.PathwayCard{
		PathwayID:         p.ID,
		Title:             p.DisplayTitle(),
		Name:              p.Name,
		MatchedVia:        p.MatchedVia,
		MatchedFrom:       string(res.MatchedFrom),
		SourceName:        res.SourceName,
		Manual:            p.IsSynthetic(),
		Country:           p.Country,
		TargetRole:        p.TargetRole,
		EstimatedDuration: p.EstimatedDuration,
		Items:             items,
		Sections:          progress.Sections(items),
		Hidden:            progress.HiddenRequirements(p, cfg),
		Progress:          summary,
		Band:              progress.BandFor(summary.PercentComplete).String(),
	}
}

// migrateConfigKeys moves configs stored under legacy name keys to pathway
// ids and persists the profile when anything moved.
func (s *dashboardService) migrateConfigKeys(ctx context.Context, userID string, seen *domain.UserProfile, resolutions []catalog.Resolution) ([]contract.ConfigKeyMigration, error) {
	if !needsMigration(seen, resolutions) {
		return nil, nil
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	unlock, err := s.store.Lock(wctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// another change is still saving; cards read the legacy keys
		s.logger.DebugContext(ctx, "config_key_migration_deferred", "user_id", userID)
		return nil, nil
	}
	defer unlock()

	var (
		moved   []contract.ConfigKeyMigration
		configs map[string]domain.PathwayConfig
	)
	undo, err := s.store.Apply(ctx, userID, func(snap *state.Snapshot) error {
		for _, res := range resolutions {
			if from, ok := migrateConfigKey(snap.Profile, res); ok {
				moved = append(moved, contract.ConfigKeyMigration{PathwayID: res.Pathway.ID, From: from})
			}
		}
		if len(moved) == 0 {
			return progress.ErrNoop
		}
		configs = snap.Profile.PathwayConfigs
		return nil
	})
	if errors.Is(err, progress.ErrNoop) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.profiles.UpdatePathwayConfigs(wctx, userID, configs); err != nil {
		undo()
		s.logger.WarnContext(ctx, "config_key_migration_failed", "user_id", userID, "error", err)
		// the dashboard still renders from the legacy keys next time
		return nil, nil
	}

	for _, m := range moved {
		key := userID + "|" + m.PathwayID + "|" + m.From
		if _, seen := s.migrated.LoadOrStore(key, true); seen {
			continue
		}
		s.logger.InfoContext(ctx, "config_key_migrated",
			"user_id", userID,
			"pathway_id", m.PathwayID,
			"from", m.From,
		)
	}
	return moved, nil
}

func (s *dashboardService) publishCrossings(ctx context.Context, userID string, card contract.PathwayCard, at time.Time) {
	for _, th := range card.Crossed {
		err := s.publisher.Publish(ctx, events.Event{
			Type:      events.MilestoneReached,
			UserID:    userID,
			PathwayID: card.PathwayID,
			Threshold: string(th),
			Percent:   card.Progress.PercentComplete,
			At:        at,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "publish_event_failed",
				"user_id", userID,
				"pathway_id", card.PathwayID,
				"threshold", string(th),
				"error", err,
			)
		}
	}
}
