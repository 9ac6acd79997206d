package testutil

import (
	"context"
	"sync/atomic"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/repository"
)

// FailingProfileRepo wraps a ProfileRepo and fails every write while Fail is
// set, or blocks writes until the context is done while Hang is set. Reads
// pass through. Used to exercise rollback of optimistic updates.
type FailingProfileRepo struct {
	repository.ProfileRepo
	Fail   atomic.Bool
	Hang   atomic.Bool
	Err    error
	Writes atomic.Int32
}

func (f *FailingProfileRepo) write(ctx context.Context) error {
	f.Writes.Add(1)
	if f.Hang.Load() {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.Fail.Load() {
		return f.Err
	}
	return nil
}

func (f *FailingProfileRepo) Update(ctx context.Context, p *domain.UserProfile) error {
	if err := f.write(ctx); err != nil {
		return err
	}
	return f.ProfileRepo.Update(ctx, p)
}

func (f *FailingProfileRepo) UpdateCustomMilestones(ctx context.Context, id string, customs []domain.CustomMilestone) error {
	if err := f.write(ctx); err != nil {
		return err
	}
	return f.ProfileRepo.UpdateCustomMilestones(ctx, id, customs)
}

func (f *FailingProfileRepo) UpdatePathwayConfigs(ctx context.Context, id string, configs map[string]domain.PathwayConfig) error {
	if err := f.write(ctx); err != nil {
		return err
	}
	return f.ProfileRepo.UpdatePathwayConfigs(ctx, id, configs)
}

// FailingMilestoneRepo fails Upsert while Fail is set, or blocks until the
// context is done when Hang is set.
type FailingMilestoneRepo struct {
	repository.UserMilestoneRepo
	Fail atomic.Bool
	Hang atomic.Bool
	Err  error
}

func (f *FailingMilestoneRepo) Upsert(ctx context.Context, s *domain.UserMilestoneStatus) error {
	if f.Hang.Load() {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.Fail.Load() {
		return f.Err
	}
	return f.UserMilestoneRepo.Upsert(ctx, s)
}
