package app

import "github.com/alexanderramin/pathways/internal/domain"

// ToggleRequest advances a milestone one step through its status cycle.
// Exactly one of MilestoneName (a catalog requirement) or CustomID is set.
type ToggleRequest struct {
	UserID        string `json:"-"`
	PathwayID     string `json:"pathway_id"`
	MilestoneName string `json:"milestone_name,omitempty"`
	CustomID      string `json:"custom_id,omitempty"`
}

func (r ToggleRequest) IsCustom() bool {
	return r.CustomID != ""
}

type ToggleResult struct {
	ItemID string            `json:"item_id"`
	Status domain.ItemStatus `json:"status"`
}

// VisibilityRequest hides or unhides a catalog requirement. Name is ignored
// by unhide-all.
type VisibilityRequest struct {
	UserID    string `json:"-"`
	PathwayID string `json:"pathway_id"`
	Name      string `json:"name,omitempty"`
}

// RenameRequest sets a display name. For catalog items ItemID is the
// requirement name; for custom items it is the custom id.
type RenameRequest struct {
	UserID    string `json:"-"`
	PathwayID string `json:"pathway_id"`
	ItemID    string `json:"item_id"`
	Custom    bool   `json:"custom"`
	Name      string `json:"name"`
}

type ReorderRequest struct {
	UserID    string `json:"-"`
	PathwayID string `json:"pathway_id"`
	ActiveID  string `json:"active_id"`
	OverID    string `json:"over_id"`
}

type AddCustomRequest struct {
	UserID     string `json:"-"`
	PathwayRef string `json:"pathway_id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
}

type DeleteCustomRequest struct {
	UserID   string `json:"-"`
	CustomID string `json:"custom_id"`
}
