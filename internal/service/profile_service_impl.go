package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/state"
	"github.com/google/uuid"
)

type profileService struct {
	profiles repository.ProfileRepo
	store    *state.Store
	runner   *mutationRunner
}

func NewProfileService(profiles repository.ProfileRepo, store *state.Store, opts MutationOptions, observers ...UseCaseObserver) ProfileService {
	return &profileService{
		profiles: profiles,
		store:    store,
		runner: &mutationRunner{
			store:    store,
			opts:     opts.withDefaults(),
			observer: useCaseObserverOrNoop(observers),
		},
	}
}

func (s *profileService) Init(ctx context.Context, p *domain.UserProfile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if p.DisplayName == "" {
		return validationError("display name is required")
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.profiles.Create(ctx, p); err != nil {
		return err
	}
	s.store.Invalidate(p.ID)
	return nil
}

func (s *profileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	snap, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.Profile, nil
}

func (s *profileService) commitProfile(ctx context.Context, snap *state.Snapshot) error {
	return s.profiles.Update(ctx, snap.Profile)
}

func (s *profileService) Follow(ctx context.Context, userID, ref string) error {
	ref = strings.TrimSpace(ref)
	return s.runner.run(ctx, pendingMutation{
		name:   "follow-pathway",
		userID: userID,
		fields: map[string]any{"ref": ref},
		validate: func() error {
			if ref == "" {
				return validationError("pathway is required")
			}
			return nil
		},
		apply: func(snap *state.Snapshot) error {
			if snap.Profile.Follows(ref) {
				return progress.ErrNoop
			}
			snap.Profile.PathwayRefs = append(snap.Profile.PathwayRefs, ref)
			snap.Profile.UpdatedAt = time.Now().UTC()
			return nil
		},
		commit: s.commitProfile,
	})
}

// Unfollow drops ref from the followed list. Custom milestones and configs
// stay on the profile so following again restores them.
func (s *profileService) Unfollow(ctx context.Context, userID, ref string) error {
	ref = strings.TrimSpace(ref)
	return s.runner.run(ctx, pendingMutation{
		name:   "unfollow-pathway",
		userID: userID,
		fields: map[string]any{"ref": ref},
		validate: func() error {
			if ref == "" {
				return validationError("pathway is required")
			}
			return nil
		},
		apply: func(snap *state.Snapshot) error {
			refs := make([]string, 0, len(snap.Profile.PathwayRefs))
			for _, r := range snap.Profile.PathwayRefs {
				if r != ref {
					refs = append(refs, r)
				}
			}
			if len(refs) == len(snap.Profile.PathwayRefs) {
				return ErrNotFound
			}
			snap.Profile.PathwayRefs = refs
			snap.Profile.UpdatedAt = time.Now().UTC()
			return nil
		},
		commit: s.commitProfile,
	})
}
