package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/events"
	"github.com/alexanderramin/pathways/internal/lock"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/state"
	"github.com/alexanderramin/pathways/internal/testutil"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store unavailable")

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

type harness struct {
	ctx        context.Context
	pathways   *repository.SQLPathwayRepo
	profiles   *testutil.FailingProfileRepo
	milestones *testutil.FailingMilestoneRepo
	loader     *catalog.Loader
	store      *state.Store
	locker     *lock.Memory
	publisher  *recordingPublisher
	observer   *recordingObserver
	logs       *bytes.Buffer

	milestone MilestoneService
	dashboard DashboardService
	profile   ProfileService
}

type harnessOption func(*MutationOptions)

func withWriteTimeout(d time.Duration) harnessOption {
	return func(o *MutationOptions) { o.WriteTimeout = d }
}

// newHarness wires the services over an in-memory database holding the
// Irish GP pathway and a profile u1 built from opts.
func newHarness(t *testing.T, profileOpts []testutil.ProfileOption, opts ...harnessOption) *harness {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)

	pathways := repository.NewSQLPathwayRepo(database)
	require.NoError(t, pathways.Upsert(ctx, testutil.NewIrishGPPathway()))

	profiles := &testutil.FailingProfileRepo{ProfileRepo: repository.NewSQLProfileRepo(database), Err: errStoreDown}
	milestones := &testutil.FailingMilestoneRepo{UserMilestoneRepo: repository.NewSQLUserMilestoneRepo(database), Err: errStoreDown}
	require.NoError(t, profiles.ProfileRepo.Create(ctx, testutil.NewTestProfile("u1", profileOpts...)))

	var mopts MutationOptions
	for _, o := range opts {
		o(&mopts)
	}

	h := &harness{
		ctx:        ctx,
		pathways:   pathways,
		profiles:   profiles,
		milestones: milestones,
		loader:     catalog.NewLoader(pathways, catalog.Rules{}, time.Minute),
		store:      state.NewStore(profiles, milestones, time.Minute),
		locker:     lock.NewMemory(),
		publisher:  &recordingPublisher{},
		observer:   &recordingObserver{},
		logs:       &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(h.logs, nil))
	h.milestone = NewMilestoneService(h.loader, h.store, profiles, milestones, h.locker, mopts, h.observer)
	h.dashboard = NewDashboardService(h.loader, h.store, profiles, progress.NewTracker(), h.publisher, logger, h.observer)
	h.profile = NewProfileService(profiles, h.store, mopts, h.observer)
	return h
}

func following(refs ...string) []testutil.ProfileOption {
	return []testutil.ProfileOption{testutil.WithPathwayRefs(refs...)}
}

func (h *harness) card(t *testing.T) contract.PathwayCard {
	t.Helper()
	resp, err := h.dashboard.Load(h.ctx, contract.DashboardRequest{UserID: "u1", PathwayID: "ie-gp"})
	require.NoError(t, err)
	require.Len(t, resp.Cards, 1)
	return resp.Cards[0]
}

func (h *harness) snapshot(t *testing.T) *state.Snapshot {
	t.Helper()
	snap, err := h.store.Get(h.ctx, "u1")
	require.NoError(t, err)
	return snap
}

// stored reads the profile straight from the database, bypassing the cache.
func (h *harness) stored(t *testing.T) *domain.UserProfile {
	t.Helper()
	p, err := h.profiles.ProfileRepo.Get(h.ctx, "u1")
	require.NoError(t, err)
	return p
}

func (h *harness) toggle(t *testing.T, name string) *contract.ToggleResult {
	t.Helper()
	res, err := h.milestone.Toggle(h.ctx, contract.ToggleRequest{UserID: "u1", PathwayID: "ie-gp", MilestoneName: name})
	require.NoError(t, err)
	return res
}

func itemIDs(items []domain.UnifiedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func findItem(items []domain.UnifiedItem, id string) (domain.UnifiedItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.UnifiedItem{}, false
}
