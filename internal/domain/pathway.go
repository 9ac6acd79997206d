package domain

import (
	"sort"
	"strings"
)

// SyntheticPathwayPrefix marks pathways fabricated for profile references
// that match nothing in the catalog.
const SyntheticPathwayPrefix = "custom-path-"

// Pathway is a catalog career route. It is read-only reference data.
type Pathway struct {
	ID                string        `json:"id" yaml:"id"`
	Name              string        `json:"name" yaml:"name"`
	Description       string        `json:"description,omitempty" yaml:"description"`
	Country           string        `json:"country,omitempty" yaml:"country"`
	TargetRole        string        `json:"target_role,omitempty" yaml:"target_role"`
	EstimatedDuration string        `json:"estimated_duration,omitempty" yaml:"estimated_duration"`
	Requirements      []Requirement `json:"requirements" yaml:"requirements"`

	// MatchedVia holds the profile reference used to find this pathway when
	// it differs from Name. Set by resolution, never persisted.
	MatchedVia string `json:"matched_via,omitempty" yaml:"-"`
}

// Requirement is a milestone definition inside a pathway.
type Requirement struct {
	Name         string   `json:"name" yaml:"name"`
	Category     Category `json:"category" yaml:"category"`
	Required     bool     `json:"required" yaml:"required"`
	Order        int      `json:"order" yaml:"order"`
	Description  string   `json:"description,omitempty" yaml:"description"`
	ResourceURL  string   `json:"resource_url,omitempty" yaml:"resource_url"`
	Alternatives []string `json:"alternatives,omitempty" yaml:"alternatives"`
	DBID         string   `json:"db_id,omitempty" yaml:"-"`
}

// NewSyntheticPathway builds the placeholder pathway used when a profile
// reference cannot be resolved. It has no requirements.
func NewSyntheticPathway(ref string) *Pathway {
	return &Pathway{
		ID:   SyntheticPathwayPrefix + strings.Join(strings.Fields(ref), "-"),
		Name: ref,
	}
}

// IsSynthetic reports whether p was fabricated for an unresolved reference.
func (p *Pathway) IsSynthetic() bool {
	return strings.HasPrefix(p.ID, SyntheticPathwayPrefix)
}

// DisplayTitle is the title a user recognizes: the reference they saved if
// resolution went through an alias, otherwise the catalog name.
func (p *Pathway) DisplayTitle() string {
	return CoalesceStr(p.MatchedVia, p.Name)
}

// RequiredRequirements returns the required requirements sorted by Order.
// Ties keep their catalog position.
func (p *Pathway) RequiredRequirements() []Requirement {
	out := make([]Requirement, 0, len(p.Requirements))
	for _, r := range p.Requirements {
		if r.Required {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// RequirementByName looks up a requirement by its exact canonical name.
func (p *Pathway) RequirementByName(name string) (Requirement, bool) {
	for _, r := range p.Requirements {
		if r.Name == name {
			return r, true
		}
	}
	return Requirement{}, false
}

// RequirementIndex returns the position of name in the canonical required
// list, or -1.
func (p *Pathway) RequirementIndex(name string) int {
	for i, r := range p.RequiredRequirements() {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// MatchesRef reports whether a stored pathway reference points at p.
func (p *Pathway) MatchesRef(ref string) bool {
	return ref != "" && (ref == p.ID || ref == p.Name || (p.MatchedVia != "" && ref == p.MatchedVia))
}

// Clone returns a deep copy.
func (p *Pathway) Clone() *Pathway {
	c := *p
	c.Requirements = make([]Requirement, len(p.Requirements))
	for i, r := range p.Requirements {
		r.Alternatives = append([]string(nil), r.Alternatives...)
		c.Requirements[i] = r
	}
	return &c
}
