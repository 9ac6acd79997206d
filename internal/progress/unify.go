// Package progress holds the pure pathway reconciliation core: merging catalog
// requirements with user state, ordering, and progress aggregation.
package progress

import (
	"github.com/alexanderramin/pathways/internal/domain"
)

// UnifyInput is everything needed to build one pathway's item list.
type UnifyInput struct {
	Pathway *domain.Pathway
	// SourceName is the reference stored on the profile that resolved to
	// Pathway. Custom milestones may be attached under it.
	SourceName string
	Statuses   []domain.UserMilestoneStatus
	Customs    []domain.CustomMilestone
	Config     domain.PathwayConfig
}

// Unify merges catalog requirements and custom milestones into a single
// list. Standard items come first in canonical order, then custom items in
// insertion order. Hidden standard items are dropped; custom items are never
// hidden. Use Sort to apply the user's ordering.
func Unify(in UnifyInput) []domain.UnifiedItem {
	if in.Pathway == nil {
		return nil
	}
	lookup := newStatusLookup(in.Statuses)

	var items []domain.UnifiedItem
	for _, req := range in.Pathway.RequiredRequirements() {
		if in.Config.IsHidden(req.Name) {
			continue
		}
		status := domain.ItemPending
		if row, ok := lookup.find(req); ok {
			status = domain.ItemStatusFromMilestone(row.Status)
		}
		name := req.Name
		if override, ok := in.Config.MilestoneOverrides[req.Name]; ok && override != "" {
			name = override
		}
		items = append(items, domain.UnifiedItem{
			ID:          req.Name,
			OriginalID:  req.Name,
			Name:        name,
			Type:        domain.ItemStandard,
			Status:      status,
			Category:    domain.ResolveCategory(string(req.Category)),
			ResourceURL: req.ResourceURL,
			DBID:        req.DBID,
		})
	}

	for _, cm := range in.Customs {
		if !cm.BelongsTo(in.SourceName, in.Pathway.ID, in.Pathway.Name) {
			continue
		}
		items = append(items, domain.UnifiedItem{
			ID:         cm.ID,
			OriginalID: cm.ID,
			Name:       cm.Name,
			Type:       domain.ItemCustom,
			Status:     domain.CustomItemStatus(cm.Completed),
			Category:   domain.ResolveCustomCategory(cm.Category),
		})
	}
	return items
}

// HiddenRequirements lists the required requirements hidden by cfg, in
// canonical order, for the restore section of a card.
func HiddenRequirements(p *domain.Pathway, cfg domain.PathwayConfig) []domain.Requirement {
	if p == nil {
		return nil
	}
	var out []domain.Requirement
	for _, req := range p.RequiredRequirements() {
		if cfg.IsHidden(req.Name) {
			out = append(out, req)
		}
	}
	return out
}

// StatusOf returns the status row that decides req's rendered status: the
// row under req's database id when it has one, else the first row with its
// name.
func StatusOf(req domain.Requirement, rows []domain.UserMilestoneStatus) (domain.UserMilestoneStatus, bool) {
	return newStatusLookup(rows).find(req)
}

// statusLookup indexes status rows by milestone id and by name. The id index
// wins when a requirement carries a database id.
type statusLookup struct {
	byID      map[string]domain.UserMilestoneStatus
	byName    map[string]domain.UserMilestoneStatus
	doneNames map[string]bool
}

func newStatusLookup(rows []domain.UserMilestoneStatus) statusLookup {
	l := statusLookup{
		byID:      make(map[string]domain.UserMilestoneStatus, len(rows)),
		byName:    make(map[string]domain.UserMilestoneStatus, len(rows)),
		doneNames: make(map[string]bool),
	}
	for _, r := range rows {
		if r.MilestoneID != "" {
			l.byID[r.MilestoneID] = r
		}
		if r.MilestoneName != "" {
			if _, seen := l.byName[r.MilestoneName]; !seen {
				l.byName[r.MilestoneName] = r
			}
			if r.Status == domain.MilestoneDone {
				l.doneNames[r.MilestoneName] = true
			}
		}
	}
	return l
}

func (l statusLookup) find(req domain.Requirement) (domain.UserMilestoneStatus, bool) {
	if req.DBID != "" {
		row, ok := l.byID[req.DBID]
		return row, ok
	}
	row, ok := l.byName[req.Name]
	return row, ok
}

// done reports whether req is completed, falling back to name and then to
// any accepted alternative.
func (l statusLookup) done(req domain.Requirement) bool {
	if req.DBID != "" {
		if row, ok := l.byID[req.DBID]; ok && row.Status == domain.MilestoneDone {
			return true
		}
	}
	if l.doneNames[req.Name] {
		return true
	}
	for _, alt := range req.Alternatives {
		if l.doneNames[alt] {
			return true
		}
	}
	return false
}
