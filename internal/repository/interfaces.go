package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/pathways/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type PathwayRepo interface {
	// Upsert writes the pathway row and its requirements. Existing
	// requirements keep their ids so user status rows stay attached.
	Upsert(ctx context.Context, p *domain.Pathway) error
	GetByID(ctx context.Context, id string) (*domain.Pathway, error)
	List(ctx context.Context) ([]*domain.Pathway, error)
	DeleteRequirement(ctx context.Context, pathwayID, name string) error
}

type UserMilestoneRepo interface {
	ListByUser(ctx context.Context, userID string) ([]domain.UserMilestoneStatus, error)
	Get(ctx context.Context, userID, milestoneID string) (*domain.UserMilestoneStatus, error)
	// Upsert inserts or updates the single row keyed by (user, milestone).
	Upsert(ctx context.Context, s *domain.UserMilestoneStatus) error
}

type ProfileRepo interface {
	Get(ctx context.Context, id string) (*domain.UserProfile, error)
	Create(ctx context.Context, p *domain.UserProfile) error
	Update(ctx context.Context, p *domain.UserProfile) error
	UpdateCustomMilestones(ctx context.Context, id string, customs []domain.CustomMilestone) error
	UpdatePathwayConfigs(ctx context.Context, id string, configs map[string]domain.PathwayConfig) error
}
