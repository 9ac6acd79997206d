// Package state holds the per-user cache that optimistic mutations apply to
// before the store confirms them.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/repository"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long a snapshot is served before refetching.
const DefaultTTL = 30 * time.Second

// Snapshot is one user's profile and milestone status rows as last seen.
type Snapshot struct {
	Profile   *domain.UserProfile
	Statuses  []domain.UserMilestoneStatus
	FetchedAt time.Time
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{FetchedAt: s.FetchedAt}
	if s.Profile != nil {
		c.Profile = s.Profile.Clone()
	}
	c.Statuses = make([]domain.UserMilestoneStatus, len(s.Statuses))
	for i, row := range s.Statuses {
		if row.CompletedAt != nil {
			t := *row.CompletedAt
			row.CompletedAt = &t
		}
		c.Statuses[i] = row
	}
	return c
}

// Status returns the row for a catalog milestone id.
func (s *Snapshot) Status(milestoneID string) (domain.UserMilestoneStatus, bool) {
	for _, row := range s.Statuses {
		if row.MilestoneID == milestoneID {
			return row, true
		}
	}
	return domain.UserMilestoneStatus{}, false
}

// PutStatus replaces the row with the same milestone id or appends it.
func (s *Snapshot) PutStatus(row domain.UserMilestoneStatus) {
	for i := range s.Statuses {
		if s.Statuses[i].MilestoneID == row.MilestoneID {
			s.Statuses[i] = row
			return
		}
	}
	s.Statuses = append(s.Statuses, row)
}

// Store caches snapshots per user. Reads refetch when the snapshot is older
// than the TTL; concurrent fetches for one user share a single store read.
type Store struct {
	profiles   repository.ProfileRepo
	milestones repository.UserMilestoneRepo
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*Snapshot
	// epoch increments on every Apply and Invalidate so a fetch that
	// started earlier cannot overwrite a newer snapshot.
	epoch map[string]uint64
	group singleflight.Group

	// writers holds one slot per user; see Lock.
	writers map[string]chan struct{}
}

func NewStore(profiles repository.ProfileRepo, milestones repository.UserMilestoneRepo, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		profiles:   profiles,
		milestones: milestones,
		ttl:        ttl,
		now:        time.Now,
		entries:    map[string]*Snapshot{},
		epoch:      map[string]uint64{},
		writers:    map[string]chan struct{}{},
	}
}

// Lock serializes optimistic writes for one user. Hold it from Apply until
// the store write has finished or been undone, so no other change is layered
// on a snapshot that may still be rolled back.
func (s *Store) Lock(ctx context.Context, userID string) (unlock func(), err error) {
	s.mu.Lock()
	slot, ok := s.writers[userID]
	if !ok {
		slot = make(chan struct{}, 1)
		s.writers[userID] = slot
	}
	s.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-slot }) }, nil
}

// Get returns a copy of the user's snapshot, fetching it when missing or
// stale.
func (s *Store) Get(ctx context.Context, userID string) (*Snapshot, error) {
	s.mu.Lock()
	snap := s.entries[userID]
	if snap != nil && s.now().Sub(snap.FetchedAt) < s.ttl {
		c := snap.Clone()
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(userID, func() (any, error) {
		return s.fetch(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot).Clone(), nil
}

func (s *Store) fetch(ctx context.Context, userID string) (*Snapshot, error) {
	s.mu.Lock()
	started := s.epoch[userID]
	s.mu.Unlock()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", userID, err)
	}
	statuses, err := s.milestones.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading milestone statuses for %s: %w", userID, err)
	}
	snap := &Snapshot{Profile: profile, Statuses: statuses, FetchedAt: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch[userID] != started {
		// an optimistic change landed while we were reading; keep it
		if cur := s.entries[userID]; cur != nil {
			return cur, nil
		}
	}
	s.entries[userID] = snap
	return snap, nil
}

// Invalidate drops the user's snapshot so the next Get refetches.
func (s *Store) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.epoch[userID]++
	s.mu.Unlock()
}

// Apply runs fn against a copy of the user's snapshot and installs the copy.
// The returned undo restores the previous snapshot. If a later Apply or
// Invalidate has already replaced this one, undo drops the cached snapshot
// instead so the next Get reloads confirmed state. If fn fails nothing
// changes.
func (s *Store) Apply(ctx context.Context, userID string, fn func(*Snapshot) error) (undo func(), err error) {
	base, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.entries[userID]
	if prev != nil {
		base = prev.Clone()
	}
	if err := fn(base); err != nil {
		return nil, err
	}
	s.entries[userID] = base
	s.epoch[userID]++

	installed := base
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.entries[userID] != installed {
			delete(s.entries, userID)
			s.epoch[userID]++
			return
		}
		if prev == nil {
			delete(s.entries, userID)
		} else {
			s.entries[userID] = prev
		}
		s.epoch[userID]++
	}, nil
}
