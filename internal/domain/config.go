package domain

// PathwayConfig holds a user's per-pathway presentation overrides. Stored
// inside the profile keyed by pathway id.
type PathwayConfig struct {
	HiddenMilestones   []string          `json:"hidden_milestones"`
	MilestoneOrder     []string          `json:"milestone_order"`
	MilestoneOverrides map[string]string `json:"milestone_overrides"`
}

func (c PathwayConfig) IsHidden(id string) bool {
	for _, h := range c.HiddenMilestones {
		if h == id {
			return true
		}
	}
	return false
}

// Hide adds id to the hidden list. Hiding twice is a no-op.
func (c *PathwayConfig) Hide(id string) {
	if c.IsHidden(id) {
		return
	}
	c.HiddenMilestones = append(c.HiddenMilestones, id)
}

// Unhide removes every occurrence of id from the hidden list.
func (c *PathwayConfig) Unhide(id string) {
	kept := make([]string, 0, len(c.HiddenMilestones))
	for _, h := range c.HiddenMilestones {
		if h != id {
			kept = append(kept, h)
		}
	}
	c.HiddenMilestones = kept
}

func (c *PathwayConfig) UnhideAll() {
	c.HiddenMilestones = []string{}
}

func (c *PathwayConfig) SetOrder(ids []string) {
	c.MilestoneOrder = append([]string(nil), ids...)
}

// SetOverride stores a display name for the requirement with the given
// canonical name.
func (c *PathwayConfig) SetOverride(name, display string) {
	if c.MilestoneOverrides == nil {
		c.MilestoneOverrides = map[string]string{}
	}
	c.MilestoneOverrides[name] = display
}

// OrderIndex returns the position of id in the saved order, or -1.
func (c PathwayConfig) OrderIndex(id string) int {
	for i, o := range c.MilestoneOrder {
		if o == id {
			return i
		}
	}
	return -1
}

func (c PathwayConfig) IsEmpty() bool {
	return len(c.HiddenMilestones) == 0 && len(c.MilestoneOrder) == 0 && len(c.MilestoneOverrides) == 0
}

func (c PathwayConfig) Clone() PathwayConfig {
	out := PathwayConfig{
		HiddenMilestones: cloneStrings(c.HiddenMilestones),
		MilestoneOrder:   cloneStrings(c.MilestoneOrder),
	}
	if c.MilestoneOverrides != nil {
		out.MilestoneOverrides = make(map[string]string, len(c.MilestoneOverrides))
		for k, v := range c.MilestoneOverrides {
			out.MilestoneOverrides[k] = v
		}
	}
	return out
}

// cloneStrings copies s, keeping an empty non-nil slice non-nil.
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
