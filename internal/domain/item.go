package domain

// ItemStatus is the display status of a unified item.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemInProgress ItemStatus = "in-progress"
	ItemCompleted  ItemStatus = "completed"
)

type ItemType string

const (
	ItemStandard ItemType = "standard"
	ItemCustom   ItemType = "custom"
)

// UnifiedItem is the single list element rendered on a pathway card, built
// from either a catalog requirement or a custom milestone.
type UnifiedItem struct {
	// ID is the requirement name for standard items and the custom id for
	// custom items. OriginalID is the key used in hidden lists and saved
	// order; it always equals ID.
	ID          string     `json:"id"`
	OriginalID  string     `json:"original_id"`
	Name        string     `json:"name"`
	Type        ItemType   `json:"type"`
	Status      ItemStatus `json:"status"`
	Category    Category   `json:"category"`
	ResourceURL string     `json:"resource_url,omitempty"`
	DBID        string     `json:"db_id,omitempty"`
}

func (i UnifiedItem) IsCustom() bool {
	return i.Type == ItemCustom
}

// ItemStatusFromMilestone maps a stored status onto the display domain.
func ItemStatusFromMilestone(s MilestoneStatus) ItemStatus {
	switch s {
	case MilestoneDone:
		return ItemCompleted
	case MilestoneInProgress:
		return ItemInProgress
	default:
		return ItemPending
	}
}

// MilestoneStatusFromItem is the inverse of ItemStatusFromMilestone.
func MilestoneStatusFromItem(s ItemStatus) MilestoneStatus {
	switch s {
	case ItemCompleted:
		return MilestoneDone
	case ItemInProgress:
		return MilestoneInProgress
	default:
		return MilestoneTodo
	}
}

// NextMilestoneStatus is the toggle cycle for standard milestones:
// pending -> in_progress -> done -> todo.
func NextMilestoneStatus(current ItemStatus) MilestoneStatus {
	switch current {
	case ItemPending:
		return MilestoneInProgress
	case ItemInProgress:
		return MilestoneDone
	default:
		return MilestoneTodo
	}
}

// CustomItemStatus maps the completed flag of a custom milestone.
func CustomItemStatus(completed bool) ItemStatus {
	if completed {
		return ItemCompleted
	}
	return ItemPending
}
