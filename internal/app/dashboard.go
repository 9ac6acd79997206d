package app

import (
	"time"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/progress"
)

type DashboardRequest struct {
	UserID string
	Now    *time.Time
	// PathwayID limits the response to one followed pathway when set.
	PathwayID string
}

// PathwayCard is one followed pathway as rendered: items in display order,
// grouped by category, with progress over the standard requirements.
type PathwayCard struct {
	PathwayID         string               `json:"pathway_id"`
	Title             string               `json:"title"`
	Name              string               `json:"name"`
	MatchedVia        string               `json:"matched_via,omitempty"`
	MatchedFrom       string               `json:"matched_from"`
	SourceName        string               `json:"source_name"`
	Manual            bool                 `json:"manual"`
	Country           string               `json:"country,omitempty"`
	TargetRole        string               `json:"target_role,omitempty"`
	EstimatedDuration string               `json:"estimated_duration,omitempty"`
	Items             []domain.UnifiedItem `json:"items"`
	Sections          []progress.Section   `json:"sections"`
	Hidden            []domain.Requirement `json:"hidden"`
	Progress          progress.Summary     `json:"progress"`
	Band              string               `json:"band"`
	Crossed           []progress.Threshold `json:"crossed,omitempty"`
}

// ConfigKeyMigration records a per-pathway config moved from a legacy name
// key to the pathway id.
type ConfigKeyMigration struct {
	PathwayID string `json:"pathway_id"`
	From      string `json:"from"`
}

type DashboardResponse struct {
	UserID      string               `json:"user_id"`
	DisplayName string               `json:"display_name"`
	Specialty   string               `json:"specialty,omitempty"`
	Cards       []PathwayCard        `json:"cards"`
	Migrated    []ConfigKeyMigration `json:"migrated,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Card returns the card for pathwayID, or nil.
func (r *DashboardResponse) Card(pathwayID string) *PathwayCard {
	for i := range r.Cards {
		if r.Cards[i].PathwayID == pathwayID {
			return &r.Cards[i]
		}
	}
	return nil
}
