package search

import (
	"sort"
	"strings"
	"sync"
)

// Memory scores records held in memory. Every query term must match some
// field; name matches weigh most.
type Memory struct {
	mu      sync.RWMutex
	records []PathwayRecord
}

func NewMemory() *Memory {
	return &Memory{}
}

// Replace swaps the indexed records.
func (m *Memory) Replace(records []PathwayRecord) {
	cp := append([]PathwayRecord(nil), records...)
	m.mu.Lock()
	m.records = cp
	m.mu.Unlock()
}

func (m *Memory) Search(q string, limit int) ([]Hit, int) {
	terms := strings.Fields(strings.ToLower(q))
	if len(terms) == 0 {
		return nil, 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for _, rec := range m.records {
		score, ok := scoreRecord(rec, terms)
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			ID:         rec.ID,
			Name:       rec.Name,
			Country:    rec.Country,
			TargetRole: rec.TargetRole,
			Score:      score,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Name < hits[j].Name
	})
	total := len(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, total
}

func scoreRecord(rec PathwayRecord, terms []string) (float64, bool) {
	name := strings.ToLower(rec.Name)
	role := strings.ToLower(rec.TargetRole)
	country := strings.ToLower(rec.Country)
	desc := strings.ToLower(rec.Description)
	id := strings.ToLower(rec.ID)

	var total float64
	for _, term := range terms {
		var s float64
		switch {
		case strings.Contains(name, term) || strings.Contains(id, term):
			s = 3
		case strings.Contains(role, term), strings.Contains(country, term):
			s = 2
		case containsFold(rec.Requirements, term):
			s = 1
		case strings.Contains(desc, term):
			s = 0.5
		}
		if s == 0 {
			return 0, false
		}
		total += s
	}
	return total, true
}

func containsFold(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
