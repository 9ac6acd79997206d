package app

import (
	"context"

	"github.com/alexanderramin/pathways/internal/domain"
)

type DashboardUseCase interface {
	Load(ctx context.Context, req DashboardRequest) (*DashboardResponse, error)
}

type ToggleUseCase interface {
	Toggle(ctx context.Context, req ToggleRequest) (*ToggleResult, error)
}

type AddCustomUseCase interface {
	AddCustom(ctx context.Context, req AddCustomRequest) (*domain.CustomMilestone, error)
}
