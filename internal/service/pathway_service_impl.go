package service

import (
	"context"
	"time"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/db"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/search"
)

type pathwayService struct {
	pathways repository.PathwayRepo
	loader   *catalog.Loader
	uow      db.UnitOfWork
	search   *search.Service
	observer UseCaseObserver
}

func NewPathwayService(
	pathways repository.PathwayRepo,
	loader *catalog.Loader,
	uow db.UnitOfWork,
	searchSvc *search.Service,
	observers ...UseCaseObserver,
) PathwayService {
	return &pathwayService{
		pathways: pathways,
		loader:   loader,
		uow:      uow,
		search:   searchSvc,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *pathwayService) List(ctx context.Context) ([]*domain.Pathway, error) {
	reg, err := s.loader.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return reg.All(), nil
}

func (s *pathwayService) Get(ctx context.Context, id string) (*domain.Pathway, error) {
	reg, err := s.loader.Registry(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := reg.ByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *pathwayService) Resolve(ctx context.Context, ref, specialty string) (catalog.Resolution, error) {
	reg, err := s.loader.Registry(ctx)
	if err != nil {
		return catalog.Resolution{}, err
	}
	return reg.Resolve(ref, specialty), nil
}

// Search answers from the search index, seeding the in-memory index from
// the catalog on first use.
func (s *pathwayService) Search(ctx context.Context, q string, limit int) (resp search.Response, err error) {
	startedAt := time.Now()
	fields := map[string]any{"query": q}
	defer func() {
		observe(ctx, s.observer, "search-pathways", startedAt, err, fields)
	}()

	if err := s.ensureIndexed(ctx); err != nil {
		return search.Response{}, err
	}
	resp = s.search.Search(q, limit)
	fields["hits"] = len(resp.Hits)
	fields["source"] = string(resp.Source)
	return resp, nil
}

func (s *pathwayService) ensureIndexed(ctx context.Context) error {
	if s.search.Indexed() {
		return nil
	}
	return s.reindex(ctx)
}

func (s *pathwayService) reindex(ctx context.Context) error {
	reg, err := s.loader.Registry(ctx)
	if err != nil {
		return err
	}
	s.search.IndexPathways(reg.All())
	return nil
}

func (s *pathwayService) Seed(ctx context.Context, seed *catalog.Seed) (n int, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		observe(ctx, s.observer, "seed-catalog", startedAt, err, fields)
	}()

	n, err = catalog.Import(ctx, s.uow, seed)
	if err != nil {
		return 0, err
	}
	fields["pathways"] = n
	s.loader.Invalidate()
	if err := s.reindex(ctx); err != nil {
		return n, err
	}
	return n, nil
}

func (s *pathwayService) Save(ctx context.Context, p *domain.Pathway) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"pathway_id": p.ID, "requirements": len(p.Requirements)}
	defer func() {
		observe(ctx, s.observer, "save-pathway", startedAt, err, fields)
	}()

	if p.ID == "" || p.IsSynthetic() {
		return validationError("pathway %q cannot be saved to the catalog", p.ID)
	}
	if err := s.pathways.Upsert(ctx, p); err != nil {
		return err
	}
	s.loader.Invalidate()
	return s.reindex(ctx)
}
