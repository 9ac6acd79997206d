package search

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/pathways/internal/domain"
)

// Service tries Meilisearch first and falls back to the in-memory index.
type Service struct {
	meili   *Meili
	memory  *Memory
	logger  *slog.Logger
	indexed atomic.Bool
}

// NewService creates the facade. meili may be nil when not configured.
func NewService(meili *Meili, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{meili: meili, memory: NewMemory(), logger: logger}
}

func (s *Service) Search(q string, limit int) Response {
	q = strings.TrimSpace(q)
	if s.meili != nil && s.meili.Healthy() {
		hits, total, err := s.meili.Search(q, limit)
		if err == nil {
			return Response{Hits: nonNil(hits), Total: total, Query: q, Source: SourceMeili}
		}
		s.logger.Warn("meilisearch error, falling back to memory", "error", err)
	}
	hits, total := s.memory.Search(q, limit)
	return Response{Hits: nonNil(hits), Total: total, Query: q, Source: SourceMemory}
}

// IndexPathways refreshes the in-memory index and pushes the catalog to
// Meilisearch when it is reachable. Meilisearch failures are logged only.
func (s *Service) IndexPathways(pathways []*domain.Pathway) {
	records := RecordsFrom(pathways)
	s.memory.Replace(records)
	s.indexed.Store(true)
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	if err := s.meili.IndexPathways(records); err != nil {
		s.logger.Warn("index pathways", "count", len(records), "error", err)
	}
}

func nonNil(h []Hit) []Hit {
	if h == nil {
		return []Hit{}
	}
	return h
}

// Indexed reports whether IndexPathways has run.
func (s *Service) Indexed() bool {
	return s.indexed.Load()
}
