// Package search finds catalog pathways by free text. Meilisearch is used
// when configured and reachable; otherwise an in-memory scorer answers.
package search

import (
	"github.com/alexanderramin/pathways/internal/domain"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 10

// Source names the backend that produced a response.
type Source string

const (
	SourceMeili  Source = "meilisearch"
	SourceMemory Source = "memory"
)

// PathwayRecord is the document indexed for a pathway.
type PathwayRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Country      string   `json:"country"`
	TargetRole   string   `json:"target_role"`
	Requirements []string `json:"requirements"`
}

// Hit is one matching pathway.
type Hit struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Country    string  `json:"country,omitempty"`
	TargetRole string  `json:"target_role,omitempty"`
	Score      float64 `json:"score"`
}

// Response is the envelope returned to callers.
type Response struct {
	Hits   []Hit  `json:"hits"`
	Total  int    `json:"total"`
	Query  string `json:"query"`
	Source Source `json:"source"`
}

// RecordsFrom converts catalog pathways into index records. Synthetic
// pathways are never indexed.
func RecordsFrom(pathways []*domain.Pathway) []PathwayRecord {
	out := make([]PathwayRecord, 0, len(pathways))
	for _, p := range pathways {
		if p.IsSynthetic() {
			continue
		}
		rec := PathwayRecord{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Country:     p.Country,
			TargetRole:  p.TargetRole,
		}
		for _, r := range p.Requirements {
			rec.Requirements = append(rec.Requirements, r.Name)
		}
		out = append(out, rec)
	}
	return out
}
