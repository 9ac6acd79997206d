package service

import (
	"context"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/search"
)

type MilestoneService interface {
	Toggle(ctx context.Context, req contract.ToggleRequest) (*contract.ToggleResult, error)
	Hide(ctx context.Context, req contract.VisibilityRequest) error
	Unhide(ctx context.Context, req contract.VisibilityRequest) error
	UnhideAll(ctx context.Context, req contract.VisibilityRequest) error
	Rename(ctx context.Context, req contract.RenameRequest) error
	Reorder(ctx context.Context, req contract.ReorderRequest) error
	AddCustom(ctx context.Context, req contract.AddCustomRequest) (*domain.CustomMilestone, error)
	DeleteCustom(ctx context.Context, req contract.DeleteCustomRequest) error
}

type DashboardService interface {
	Load(ctx context.Context, req contract.DashboardRequest) (*contract.DashboardResponse, error)
}

type ProfileService interface {
	Init(ctx context.Context, p *domain.UserProfile) error
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Follow(ctx context.Context, userID, ref string) error
	Unfollow(ctx context.Context, userID, ref string) error
}

type PathwayService interface {
	List(ctx context.Context) ([]*domain.Pathway, error)
	Get(ctx context.Context, id string) (*domain.Pathway, error)
	Resolve(ctx context.Context, ref, specialty string) (catalog.Resolution, error)
	Search(ctx context.Context, q string, limit int) (search.Response, error)
	// Seed writes a catalog to the store and refreshes caches and indexes.
	Seed(ctx context.Context, seed *catalog.Seed) (int, error)
	// Save upserts one pathway, e.g. after an AI refresh.
	Save(ctx context.Context, p *domain.Pathway) error
}

// RegistrySource supplies the current catalog registry.
type RegistrySource interface {
	Registry(ctx context.Context) (*catalog.Registry, error)
}
