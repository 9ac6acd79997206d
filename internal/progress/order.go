package progress

import (
	"errors"
	"fmt"
	"sort"

	"github.com/alexanderramin/pathways/internal/domain"
)

var (
	// ErrCrossCategory is returned when a reorder would move an item into a
	// different category.
	ErrCrossCategory = errors.New("milestones can only be reordered within the same category")

	// ErrUnknownItem is returned when a reorder references an id not present
	// in the current list.
	ErrUnknownItem = errors.New("milestone not in list")

	// ErrNoop is returned when a reorder drops an item onto itself.
	ErrNoop = errors.New("nothing to reorder")
)

// Sort orders items for display. Keys, in priority order:
//  1. category display order
//  2. position in the saved order (items present there come first)
//  3. canonical requirement order, for two standard items
//  4. standard before custom
//
// Remaining ties keep their input order, so Sort is idempotent.
func Sort(items []domain.UnifiedItem, order []string, p *domain.Pathway) []domain.UnifiedItem {
	pos := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}
	canonical := map[string]int{}
	if p != nil {
		for i, r := range p.RequiredRequirements() {
			canonical[r.Name] = i
		}
	}

	out := append([]domain.UnifiedItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ca, cb := a.Category.OrderIndex(), b.Category.OrderIndex(); ca != cb {
			return ca < cb
		}

		ia, aok := pos[a.OriginalID]
		ib, bok := pos[b.OriginalID]
		switch {
		case aok && bok:
			if ia != ib {
				return ia < ib
			}
			return false
		case aok:
			return true
		case bok:
			return false
		}

		if !a.IsCustom() && !b.IsCustom() {
			return canonicalIndex(canonical, a) < canonicalIndex(canonical, b)
		}
		if a.IsCustom() != b.IsCustom() {
			return !a.IsCustom()
		}
		return false
	})
	return out
}

func canonicalIndex(canonical map[string]int, it domain.UnifiedItem) int {
	if i, ok := canonical[it.OriginalID]; ok {
		return i
	}
	return len(canonical)
}

// Reorder moves activeID to the position of overID within the sorted list and
// returns the new full order of ids. Items in different categories cannot be
// swapped; the caller must leave the saved order untouched in that case.
func Reorder(sorted []domain.UnifiedItem, activeID, overID string) ([]string, error) {
	from, to := -1, -1
	for i, it := range sorted {
		if it.ID == activeID {
			from = i
		}
		if it.ID == overID {
			to = i
		}
	}
	if from < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, activeID)
	}
	if to < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, overID)
	}
	if from == to {
		return nil, ErrNoop
	}
	if sorted[from].Category != sorted[to].Category {
		return nil, ErrCrossCategory
	}

	moved := arrayMove(sorted, from, to)
	ids := make([]string, len(moved))
	for i, it := range moved {
		ids[i] = it.OriginalID
	}
	return ids, nil
}

func arrayMove(items []domain.UnifiedItem, from, to int) []domain.UnifiedItem {
	out := make([]domain.UnifiedItem, 0, len(items))
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)

	item := items[from]
	out = append(out[:to], append([]domain.UnifiedItem{item}, out[to:]...)...)
	return out
}

// Section is a run of consecutive items sharing a category. A divider is
// rendered above each section.
type Section struct {
	Category domain.Category      `json:"category"`
	Items    []domain.UnifiedItem `json:"items"`
}

// Sections groups a sorted list into category runs.
func Sections(sorted []domain.UnifiedItem) []Section {
	var out []Section
	for _, it := range sorted {
		if n := len(out); n > 0 && out[n-1].Category == it.Category {
			out[n-1].Items = append(out[n-1].Items, it)
			continue
		}
		out = append(out, Section{Category: it.Category, Items: []domain.UnifiedItem{it}})
	}
	return out
}
