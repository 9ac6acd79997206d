package domain

import "time"

// UserProfile is the per-user record holding followed pathways, custom
// milestones and per-pathway presentation config.
type UserProfile struct {
	ID               string
	DisplayName      string
	Specialty        string
	PathwayRefs      []string
	CustomMilestones []CustomMilestone
	PathwayConfigs   map[string]PathwayConfig
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ConfigFor returns the config stored under key, or an empty config.
func (p *UserProfile) ConfigFor(key string) PathwayConfig {
	if p.PathwayConfigs == nil {
		return PathwayConfig{}
	}
	return p.PathwayConfigs[key]
}

func (p *UserProfile) SetConfig(key string, cfg PathwayConfig) {
	if p.PathwayConfigs == nil {
		p.PathwayConfigs = map[string]PathwayConfig{}
	}
	p.PathwayConfigs[key] = cfg
}

// CustomFor returns custom milestones attached to a pathway under any of
// refs, in insertion order.
func (p *UserProfile) CustomFor(refs ...string) []CustomMilestone {
	var out []CustomMilestone
	for _, cm := range p.CustomMilestones {
		if cm.BelongsTo(refs...) {
			out = append(out, cm)
		}
	}
	return out
}

// FindCustom returns the index of the custom milestone with id, or -1.
func (p *UserProfile) FindCustom(id string) int {
	for i, cm := range p.CustomMilestones {
		if cm.ID == id {
			return i
		}
	}
	return -1
}

// Follows reports whether ref is already in PathwayRefs.
func (p *UserProfile) Follows(ref string) bool {
	for _, r := range p.PathwayRefs {
		if r == ref {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to mutate independently.
func (p *UserProfile) Clone() *UserProfile {
	c := *p
	c.PathwayRefs = append([]string(nil), p.PathwayRefs...)
	c.CustomMilestones = append([]CustomMilestone(nil), p.CustomMilestones...)
	if p.PathwayConfigs != nil {
		c.PathwayConfigs = make(map[string]PathwayConfig, len(p.PathwayConfigs))
		for k, v := range p.PathwayConfigs {
			c.PathwayConfigs[k] = v.Clone()
		}
	}
	return &c
}
