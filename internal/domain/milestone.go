package domain

import (
	"fmt"
	"time"
)

// MilestoneStatus is the persisted per-user state of a catalog milestone.
type MilestoneStatus string

const (
	MilestoneTodo       MilestoneStatus = "todo"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneDone       MilestoneStatus = "done"
	MilestoneSkipped    MilestoneStatus = "skipped"
)

func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestoneTodo, MilestoneInProgress, MilestoneDone, MilestoneSkipped:
		return true
	}
	return false
}

// ParseMilestoneStatus validates a stored status string.
func ParseMilestoneStatus(s string) (MilestoneStatus, error) {
	st := MilestoneStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("invalid milestone status %q", s)
	}
	return st, nil
}

// UserMilestoneStatus is the per-user, per-catalog-milestone state. At most one
// exists per (UserID, MilestoneID); rows are never deleted, only reverted to
// todo.
type UserMilestoneStatus struct {
	ID            string
	UserID        string
	MilestoneID   string
	MilestoneName string
	Status        MilestoneStatus
	CompletedAt   *time.Time
	Notes         string
	UpdatedAt     time.Time
}

// ApplyStatus moves the row to next. CompletedAt is only kept while done.
func (m *UserMilestoneStatus) ApplyStatus(next MilestoneStatus, now time.Time) {
	m.Status = next
	m.UpdatedAt = now
	if next == MilestoneDone {
		t := now
		m.CompletedAt = &t
	} else {
		m.CompletedAt = nil
	}
}

// CustomMilestone is a user-created milestone stored inside the profile.
type CustomMilestone struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PathwayRef string    `json:"pathway_id"`
	Category   string    `json:"category,omitempty"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
}

// BelongsTo reports whether the milestone is attached to the pathway under
// any of the identifiers the pathway is known by.
func (c CustomMilestone) BelongsTo(refs ...string) bool {
	for _, r := range refs {
		if r != "" && c.PathwayRef == r {
			return true
		}
	}
	return false
}
