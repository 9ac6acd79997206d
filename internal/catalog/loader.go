package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/pathways/internal/db"
	"github.com/alexanderramin/pathways/internal/repository"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a loaded registry is served before reloading.
const DefaultTTL = 5 * time.Minute

// Loader serves a cached Registry built from the pathway store. Concurrent
// reloads are collapsed into one store read.
type Loader struct {
	repo  repository.PathwayRepo
	rules Rules
	ttl   time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	cached   *Registry
	loadedAt time.Time
	group    singleflight.Group
}

func NewLoader(repo repository.PathwayRepo, rules Rules, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader{repo: repo, rules: rules, ttl: ttl, now: time.Now}
}

// Registry returns the cached registry, reloading it when stale.
func (l *Loader) Registry(ctx context.Context) (*Registry, error) {
	l.mu.RLock()
	reg, at := l.cached, l.loadedAt
	l.mu.RUnlock()
	if reg != nil && l.now().Sub(at) < l.ttl {
		return reg, nil
	}

	v, err, _ := l.group.Do("registry", func() (any, error) {
		pathways, err := l.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		reg := NewRegistry(pathways, l.rules)
		l.mu.Lock()
		l.cached, l.loadedAt = reg, l.now()
		l.mu.Unlock()
		return reg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Registry), nil
}

// Invalidate drops the cached registry so the next call reloads.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

// Import writes every seed pathway to the store in one transaction and
// returns the number of pathways written.
func Import(ctx context.Context, uow db.UnitOfWork, seed *Seed) (int, error) {
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLPathwayRepo(tx)
		for i := range seed.Pathways {
			p := seed.Pathways[i].Clone()
			if err := repo.Upsert(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("importing catalog: %w", err)
	}
	return len(seed.Pathways), nil
}

// StaticRegistry builds a registry straight from a seed, without a store.
func StaticRegistry(seed *Seed) *Registry {
	return NewRegistry(seed.PathwayPointers(), seed.Rules)
}
