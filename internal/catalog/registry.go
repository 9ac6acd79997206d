package catalog

import (
	"strings"

	"github.com/alexanderramin/pathways/internal/domain"
)

// MatchSource records how a profile reference was resolved.
type MatchSource string

const (
	MatchByID       MatchSource = "pathway_id"
	MatchNameToID   MatchSource = "name_to_id"
	MatchDirectName MatchSource = "direct_name"
	MatchFuzzy      MatchSource = "fuzzy_name"
	MatchSynthetic  MatchSource = "synthetic"
)

// Resolution is the outcome of resolving one profile reference.
type Resolution struct {
	// Pathway is a copy owned by the caller. MatchedVia is set when the
	// reference differs from the catalog name.
	Pathway     *domain.Pathway
	MatchedFrom MatchSource
	SourceName  string
}

// Registry is an immutable, indexed view of the catalog.
type Registry struct {
	pathways []*domain.Pathway
	byID     map[string]*domain.Pathway
	rules    Rules
}

func NewRegistry(pathways []*domain.Pathway, rules Rules) *Registry {
	r := &Registry{
		pathways: pathways,
		byID:     make(map[string]*domain.Pathway, len(pathways)),
		rules:    rules,
	}
	for _, p := range pathways {
		r.byID[p.ID] = p
	}
	return r
}

// All returns the catalog pathways in load order. Callers must not mutate
// the returned pathways.
func (r *Registry) All() []*domain.Pathway {
	return r.pathways
}

func (r *Registry) Len() int {
	return len(r.pathways)
}

func (r *Registry) ByID(id string) (*domain.Pathway, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// ByName finds a pathway by display name: exact (case-insensitive) first,
// then legacy name mappings, then heuristics.
func (r *Registry) ByName(name, specialty string) (*domain.Pathway, bool) {
	if p := r.directName(name); p != nil {
		return p, true
	}
	if p := r.nameToID(name); p != nil {
		return p, true
	}
	if p := r.fuzzy(name, specialty); p != nil {
		return p, true
	}
	return nil, false
}

// Resolve maps a stored profile reference (an id or a legacy name) to a
// pathway. References that match nothing resolve to a synthetic pathway with
// no requirements so the user can still track custom milestones against it.
func (r *Registry) Resolve(ref, specialty string) Resolution {
	ref = strings.TrimSpace(ref)
	if p, ok := r.byID[ref]; ok {
		return Resolution{Pathway: p.Clone(), MatchedFrom: MatchByID, SourceName: ref}
	}

	steps := []struct {
		source MatchSource
		find   func() *domain.Pathway
	}{
		{MatchNameToID, func() *domain.Pathway { return r.nameToID(ref) }},
		{MatchDirectName, func() *domain.Pathway { return r.directName(ref) }},
		{MatchFuzzy, func() *domain.Pathway { return r.fuzzy(ref, specialty) }},
	}
	for _, step := range steps {
		if p := step.find(); p != nil {
			return Resolution{Pathway: withMatchedVia(p, ref), MatchedFrom: step.source, SourceName: ref}
		}
	}

	return Resolution{Pathway: domain.NewSyntheticPathway(ref), MatchedFrom: MatchSynthetic, SourceName: ref}
}

// ResolveAll resolves every reference, dropping later references that land
// on an already resolved pathway.
func (r *Registry) ResolveAll(refs []string, specialty string) []Resolution {
	seen := map[string]bool{}
	var out []Resolution
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		res := r.Resolve(ref, specialty)
		if seen[res.Pathway.ID] {
			continue
		}
		seen[res.Pathway.ID] = true
		out = append(out, res)
	}
	return out
}

func withMatchedVia(p *domain.Pathway, ref string) *domain.Pathway {
	c := p.Clone()
	if c.Name != ref {
		c.MatchedVia = ref
	}
	return c
}

func (r *Registry) directName(name string) *domain.Pathway {
	norm := strings.ToLower(strings.TrimSpace(name))
	for _, p := range r.pathways {
		if strings.ToLower(p.Name) == norm {
			return p
		}
	}
	return nil
}

func (r *Registry) nameToID(name string) *domain.Pathway {
	for _, m := range r.rules.NameMap {
		if m.Name == name {
			return r.byID[m.PathwayID]
		}
	}
	return nil
}

func (r *Registry) fuzzy(name, specialty string) *domain.Pathway {
	if p, ok := r.byID[name]; ok {
		return p
	}
	norm := strings.ToLower(strings.TrimSpace(name))
	if norm == "" {
		return nil
	}

	for _, a := range r.rules.Aliases {
		if strings.Contains(norm, strings.ToLower(a.Contains)) {
			return r.byID[a.PathwayID]
		}
	}

	if !containsAny(norm, r.rules.SpecialtyRules.Triggers) {
		return nil
	}
	spec := strings.ToLower(specialty)
	for _, rule := range r.rules.SpecialtyRules.Rules {
		if !containsAny(spec, rule.Specialty) {
			continue
		}
		if len(rule.Contains) > 0 && !containsAny(norm, rule.Contains) {
			continue
		}
		if p, ok := r.byID[rule.PathwayID]; ok {
			return p
		}
	}

	for _, p := range r.pathways {
		pn := strings.ToLower(p.Name)
		if strings.Contains(pn, norm) || strings.Contains(norm, pn) {
			return p
		}
	}
	return nil
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(s, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
