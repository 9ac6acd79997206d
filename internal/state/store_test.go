package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProfiles struct {
	repository.ProfileRepo
	gets atomic.Int32
	gate chan struct{}
}

func (c *countingProfiles) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	c.gets.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.ProfileRepo.Get(ctx, id)
}

type fixture struct {
	store    *Store
	profiles *countingProfiles
	ms       repository.UserMilestoneRepo
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	profileRepo := repository.NewSQLProfileRepo(database)
	require.NoError(t, profileRepo.Create(ctx, testutil.NewTestProfile("u1", testutil.WithPathwayRefs("ie-gp"))))

	ms := repository.NewSQLUserMilestoneRepo(database)
	done := domain.UserMilestoneStatus{UserID: "u1", MilestoneID: "m1", MilestoneName: "IMC Registration"}
	done.ApplyStatus(domain.MilestoneDone, time.Now().UTC())
	require.NoError(t, ms.Upsert(ctx, &done))

	f := &fixture{profiles: &countingProfiles{ProfileRepo: profileRepo}, ms: ms}
	f.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.store = NewStore(f.profiles, ms, time.Minute)
	f.store.now = func() time.Time { return f.now }
	return f
}

func TestStore_GetCachesWithinTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ie-gp"}, snap.Profile.PathwayRefs)
	require.Len(t, snap.Statuses, 1)

	_, err = f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.profiles.gets.Load())

	f.now = f.now.Add(2 * time.Minute)
	_, err = f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.profiles.gets.Load())
}

func TestStore_GetReturnsIndependentCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	a.Profile.PathwayRefs[0] = "mutated"
	a.Statuses[0].Status = domain.MilestoneTodo

	b, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ie-gp", b.Profile.PathwayRefs[0])
	assert.Equal(t, domain.MilestoneDone, b.Statuses[0].Status)
}

func TestStore_GetMissingUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_InvalidateForcesRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	f.store.Invalidate("u1")
	_, err = f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.profiles.gets.Load())
}

func TestStore_ApplyAndUndo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	undo, err := f.store.Apply(ctx, "u1", func(s *Snapshot) error {
		cfg := s.Profile.ConfigFor("ie-gp")
		cfg.Hide("PRES")
		s.Profile.SetConfig("ie-gp", cfg)
		return nil
	})
	require.NoError(t, err)

	snap, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap.Profile.ConfigFor("ie-gp").IsHidden("PRES"))

	undo()
	snap, err = f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, snap.Profile.ConfigFor("ie-gp").IsHidden("PRES"))
	assert.Equal(t, int32(1), f.profiles.gets.Load(), "undo restores the cached snapshot without refetching")
}

func TestStore_ApplyErrorLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := f.store.Apply(ctx, "u1", func(s *Snapshot) error {
		s.Profile.DisplayName = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, "changed", snap.Profile.DisplayName)
}

func TestStore_UndoAfterLaterApplyReloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	undoFirst, err := f.store.Apply(ctx, "u1", func(s *Snapshot) error {
		s.Profile.DisplayName = "first"
		return nil
	})
	require.NoError(t, err)
	_, err = f.store.Apply(ctx, "u1", func(s *Snapshot) error {
		s.Profile.DisplayName = "second"
		return nil
	})
	require.NoError(t, err)

	undoFirst()
	snap, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	// neither change was written, so the reload shows the stored profile
	assert.Equal(t, "Dr u1", snap.Profile.DisplayName)
	assert.Equal(t, int32(2), f.profiles.gets.Load())
}

func TestStore_LockSerializesPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unlock, err := f.store.Lock(ctx, "u1")
	require.NoError(t, err)

	// other users are not blocked
	unlockOther, err := f.store.Lock(ctx, "u2")
	require.NoError(t, err)
	unlockOther()

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = f.store.Lock(short, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan func(), 1)
	go func() {
		next, err := f.store.Lock(ctx, "u1")
		if assert.NoError(t, err) {
			acquired <- next
		}
	}()
	select {
	case <-acquired:
		t.Fatal("second writer got the lock while the first held it")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	unlock() // idempotent
	select {
	case next := <-acquired:
		next()
	case <-time.After(time.Second):
		t.Fatal("second writer never got the lock")
	}
}

func TestStore_PutStatus(t *testing.T) {
	snap := &Snapshot{}
	snap.PutStatus(domain.UserMilestoneStatus{MilestoneID: "m1", Status: domain.MilestoneInProgress})
	snap.PutStatus(domain.UserMilestoneStatus{MilestoneID: "m2", Status: domain.MilestoneTodo})
	snap.PutStatus(domain.UserMilestoneStatus{MilestoneID: "m1", Status: domain.MilestoneDone})

	require.Len(t, snap.Statuses, 2)
	row, ok := snap.Status("m1")
	require.True(t, ok)
	assert.Equal(t, domain.MilestoneDone, row.Status)
	_, ok = snap.Status("m3")
	assert.False(t, ok)
}

func TestStore_ConcurrentGetsShareOneFetch(t *testing.T) {
	f := newFixture(t)
	f.profiles.gate = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.store.Get(context.Background(), "u1")
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return f.profiles.gets.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.profiles.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.profiles.gets.Load())
}
