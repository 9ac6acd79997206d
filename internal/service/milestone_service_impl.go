package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/lock"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/state"
	"github.com/google/uuid"
)

type milestoneService struct {
	registry   RegistrySource
	profiles   repository.ProfileRepo
	milestones repository.UserMilestoneRepo
	runner     *mutationRunner
	now        func() time.Time
}

func NewMilestoneService(
	registry RegistrySource,
	store *state.Store,
	profiles repository.ProfileRepo,
	milestones repository.UserMilestoneRepo,
	locker lock.Locker,
	opts MutationOptions,
	observers ...UseCaseObserver,
) MilestoneService {
	return &milestoneService{
		registry:   registry,
		profiles:   profiles,
		milestones: milestones,
		runner: &mutationRunner{
			store:    store,
			locker:   locker,
			opts:     opts.withDefaults(),
			observer: useCaseObserverOrNoop(observers),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *milestoneService) commitConfigs(ctx context.Context, snap *state.Snapshot) error {
	return s.profiles.UpdatePathwayConfigs(ctx, snap.Profile.ID, snap.Profile.PathwayConfigs)
}

func (s *milestoneService) commitCustoms(ctx context.Context, snap *state.Snapshot) error {
	return s.profiles.UpdateCustomMilestones(ctx, snap.Profile.ID, snap.Profile.CustomMilestones)
}

// followed resolves pathwayID against the user's followed references using
// the snapshot being edited.
func (s *milestoneService) followed(reg *catalog.Registry, snap *state.Snapshot, pathwayID string) (catalog.Resolution, error) {
	return followedPathway(reg, snap.Profile, pathwayID)
}

func (s *milestoneService) Toggle(ctx context.Context, req contract.ToggleRequest) (*contract.ToggleResult, error) {
	var reg *catalog.Registry
	result := &contract.ToggleResult{ItemID: req.MilestoneName}
	m := pendingMutation{
		name:   "toggle-milestone",
		userID: req.UserID,
		fields: map[string]any{"pathway_id": req.PathwayID, "custom": req.IsCustom()},
		validate: func() error {
			if req.PathwayID == "" && !req.IsCustom() {
				return validationError("pathway id is required")
			}
			if req.MilestoneName == "" && !req.IsCustom() {
				return validationError("milestone name or custom id is required")
			}
			return nil
		},
	}

	if req.IsCustom() {
		result.ItemID = req.CustomID
		m.lockKey = req.CustomID
		m.apply = func(snap *state.Snapshot) error {
			i := snap.Profile.FindCustom(req.CustomID)
			if i < 0 {
				return fmt.Errorf("custom milestone %s: %w", req.CustomID, ErrNotFound)
			}
			cm := &snap.Profile.CustomMilestones[i]
			cm.Completed = !cm.Completed
			result.Status = domain.CustomItemStatus(cm.Completed)
			return nil
		}
		m.commit = s.commitCustoms
	} else {
		var written domain.UserMilestoneStatus
		m.lockKey = req.PathwayID + "/" + req.MilestoneName
		m.apply = func(snap *state.Snapshot) error {
			res, err := s.followed(reg, snap, req.PathwayID)
			if err != nil {
				return err
			}
			r, ok := res.Pathway.RequirementByName(req.MilestoneName)
			if !ok || r.DBID == "" {
				return fmt.Errorf("milestone %q in %s: %w", req.MilestoneName, req.PathwayID, ErrNotFound)
			}

			// start from the row the card shows so the cycle matches what
			// the user saw
			row, ok := progress.StatusOf(r, snap.Statuses)
			if !ok {
				row = domain.UserMilestoneStatus{
					ID:            uuid.New().String(),
					UserID:        req.UserID,
					MilestoneID:   r.DBID,
					MilestoneName: r.Name,
					Status:        domain.MilestoneTodo,
				}
			}
			next := domain.NextMilestoneStatus(domain.ItemStatusFromMilestone(row.Status))
			row.ApplyStatus(next, s.now())
			snap.PutStatus(row)
			written = row
			result.Status = domain.ItemStatusFromMilestone(next)
			return nil
		}
		m.commit = func(ctx context.Context, _ *state.Snapshot) error {
			row := written
			return s.milestones.Upsert(ctx, &row)
		}
	}

	if !req.IsCustom() && req.PathwayID != "" {
		var err error
		if reg, err = s.registry.Registry(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.runner.run(ctx, m); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *milestoneService) visibility(ctx context.Context, name string, req contract.VisibilityRequest, needName bool, edit func(cfg *domain.PathwayConfig, res catalog.Resolution, p *domain.UserProfile) error) error {
	reg, err := s.registry.Registry(ctx)
	if err != nil {
		return err
	}
	return s.runner.run(ctx, pendingMutation{
		name:   name,
		userID: req.UserID,
		fields: map[string]any{"pathway_id": req.PathwayID, "milestone": req.Name},
		validate: func() error {
			if req.PathwayID == "" {
				return validationError("pathway id is required")
			}
			if needName && strings.TrimSpace(req.Name) == "" {
				return validationError("milestone name is required")
			}
			return nil
		},
		apply: func(snap *state.Snapshot) error {
			res, err := s.followed(reg, snap, req.PathwayID)
			if err != nil {
				return err
			}
			return editConfig(snap.Profile, res, func(cfg *domain.PathwayConfig) error {
				return edit(cfg, res, snap.Profile)
			})
		},
		commit: s.commitConfigs,
	})
}

func (s *milestoneService) Hide(ctx context.Context, req contract.VisibilityRequest) error {
	return s.visibility(ctx, "hide-milestone", req, true, func(cfg *domain.PathwayConfig, res catalog.Resolution, p *domain.UserProfile) error {
		if _, ok := res.Pathway.RequirementByName(req.Name); !ok {
			if p.FindCustom(req.Name) >= 0 {
				return validationError("custom milestones cannot be hidden, delete them instead")
			}
			return fmt.Errorf("milestone %q in %s: %w", req.Name, req.PathwayID, ErrNotFound)
		}
		if cfg.IsHidden(req.Name) {
			return progress.ErrNoop
		}
		cfg.Hide(req.Name)
		return nil
	})
}

func (s *milestoneService) Unhide(ctx context.Context, req contract.VisibilityRequest) error {
	return s.visibility(ctx, "unhide-milestone", req, true, func(cfg *domain.PathwayConfig, _ catalog.Resolution, _ *domain.UserProfile) error {
		if !cfg.IsHidden(req.Name) {
			return progress.ErrNoop
		}
		cfg.Unhide(req.Name)
		return nil
	})
}

func (s *milestoneService) UnhideAll(ctx context.Context, req contract.VisibilityRequest) error {
	return s.visibility(ctx, "unhide-all-milestones", req, false, func(cfg *domain.PathwayConfig, _ catalog.Resolution, _ *domain.UserProfile) error {
		if len(cfg.HiddenMilestones) == 0 {
			return progress.ErrNoop
		}
		cfg.UnhideAll()
		return nil
	})
}

func (s *milestoneService) Rename(ctx context.Context, req contract.RenameRequest) error {
	name := strings.TrimSpace(req.Name)
	m := pendingMutation{
		name:   "rename-milestone",
		userID: req.UserID,
		fields: map[string]any{"pathway_id": req.PathwayID, "item_id": req.ItemID, "custom": req.Custom},
		validate: func() error {
			if req.ItemID == "" {
				return validationError("item id is required")
			}
			if !req.Custom && req.PathwayID == "" {
				return validationError("pathway id is required")
			}
			return nil
		},
	}

	if req.Custom {
		m.apply = func(snap *state.Snapshot) error {
			i := snap.Profile.FindCustom(req.ItemID)
			if i < 0 {
				return fmt.Errorf("custom milestone %s: %w", req.ItemID, ErrNotFound)
			}
			if name == "" || snap.Profile.CustomMilestones[i].Name == name {
				return progress.ErrNoop
			}
			snap.Profile.CustomMilestones[i].Name = name
			return nil
		}
		m.commit = s.commitCustoms
		return s.runner.run(ctx, m)
	}

	reg, err := s.registry.Registry(ctx)
	if err != nil {
		return err
	}
	m.apply = func(snap *state.Snapshot) error {
		res, err := s.followed(reg, snap, req.PathwayID)
		if err != nil {
			return err
		}
		if _, ok := res.Pathway.RequirementByName(req.ItemID); !ok {
			return fmt.Errorf("milestone %q in %s: %w", req.ItemID, req.PathwayID, ErrNotFound)
		}
		return editConfig(snap.Profile, res, func(cfg *domain.PathwayConfig) error {
			current := domain.CoalesceStr(cfg.MilestoneOverrides[req.ItemID], req.ItemID)
			if name == "" || name == current {
				return progress.ErrNoop
			}
			if name == req.ItemID {
				delete(cfg.MilestoneOverrides, req.ItemID)
				return nil
			}
			cfg.SetOverride(req.ItemID, name)
			return nil
		})
	}
	m.commit = s.commitConfigs
	return s.runner.run(ctx, m)
}

func (s *milestoneService) Reorder(ctx context.Context, req contract.ReorderRequest) error {
	reg, err := s.registry.Registry(ctx)
	if err != nil {
		return err
	}
	return s.runner.run(ctx, pendingMutation{
		name:   "reorder-milestones",
		userID: req.UserID,
		fields: map[string]any{"pathway_id": req.PathwayID, "active_id": req.ActiveID, "over_id": req.OverID},
		validate: func() error {
			if req.PathwayID == "" || req.ActiveID == "" || req.OverID == "" {
				return validationError("pathway id, active id and over id are required")
			}
			return nil
		},
		apply: func(snap *state.Snapshot) error {
			res, err := s.followed(reg, snap, req.PathwayID)
			if err != nil {
				return err
			}
			return editConfig(snap.Profile, res, func(cfg *domain.PathwayConfig) error {
				items := progress.Sort(progress.Unify(progress.UnifyInput{
					Pathway:    res.Pathway,
					SourceName: res.SourceName,
					Statuses:   snap.Statuses,
					Customs:    snap.Profile.CustomMilestones,
					Config:     *cfg,
				}), cfg.MilestoneOrder, res.Pathway)

				order, err := progress.Reorder(items, req.ActiveID, req.OverID)
				if err != nil {
					return err
				}
				cfg.SetOrder(order)
				return nil
			})
		},
		commit: s.commitConfigs,
	})
}

func (s *milestoneService) AddCustom(ctx context.Context, req contract.AddCustomRequest) (*domain.CustomMilestone, error) {
	name := strings.TrimSpace(req.Name)
	cm := domain.CustomMilestone{
		ID:         uuid.New().String(),
		Name:       name,
		PathwayRef: strings.TrimSpace(req.PathwayRef),
		Category:   string(domain.ResolveCustomCategory(req.Category)),
		CreatedAt:  s.now(),
	}
	err := s.runner.run(ctx, pendingMutation{
		name:   "add-custom-milestone",
		userID: req.UserID,
		fields: map[string]any{"pathway_ref": cm.PathwayRef, "category": cm.Category},
		validate: func() error {
			if name == "" {
				return validationError("milestone name is required")
			}
			if cm.PathwayRef == "" {
				return validationError("pathway is required")
			}
			return nil
		},
		apply: func(snap *state.Snapshot) error {
			snap.Profile.CustomMilestones = append(snap.Profile.CustomMilestones, cm)
			return nil
		},
		commit: s.commitCustoms,
	})
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

func (s *milestoneService) DeleteCustom(ctx context.Context, req contract.DeleteCustomRequest) error {
	return s.runner.run(ctx, pendingMutation{
		name:   "delete-custom-milestone",
		userID: req.UserID,
		fields: map[string]any{"custom_id": req.CustomID},
		validate: func() error {
			if req.CustomID == "" {
				return validationError("custom id is required")
			}
			return nil
		},
		apply: func(snap *state.Snapshot) error {
			i := snap.Profile.FindCustom(req.CustomID)
			if i < 0 {
				return fmt.Errorf("custom milestone %s: %w", req.CustomID, ErrNotFound)
			}
			cms := snap.Profile.CustomMilestones
			snap.Profile.CustomMilestones = append(cms[:i:i], cms[i+1:]...)
			return nil
		},
		commit: s.commitCustoms,
	})
}
