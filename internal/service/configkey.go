package service

import (
	"fmt"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/domain"
)

// followedPathway finds the followed pathway with id among the profile's
// references.
func followedPathway(reg *catalog.Registry, p *domain.UserProfile, pathwayID string) (catalog.Resolution, error) {
	for _, res := range reg.ResolveAll(p.PathwayRefs, p.Specialty) {
		if res.Pathway.ID == pathwayID {
			return res, nil
		}
	}
	return catalog.Resolution{}, notFollowed(pathwayID)
}

func notFollowed(pathwayID string) error {
	return fmt.Errorf("pathway %s is not followed: %w", pathwayID, ErrNotFound)
}

// legacyConfigKeys lists the keys a pathway config may be stored under from
// before pathway ids became the canonical key.
func legacyConfigKeys(res catalog.Resolution) []string {
	var keys []string
	for _, k := range []string{res.Pathway.Name, res.SourceName} {
		if k == "" || k == res.Pathway.ID {
			continue
		}
		if len(keys) == 1 && keys[0] == k {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// migrateConfigKey moves a config stored under a legacy key to the pathway
// id when no id-keyed config exists yet. It returns the key moved from.
func migrateConfigKey(p *domain.UserProfile, res catalog.Resolution) (string, bool) {
	id := res.Pathway.ID
	if _, ok := p.PathwayConfigs[id]; ok {
		return "", false
	}
	for _, k := range legacyConfigKeys(res) {
		cfg, ok := p.PathwayConfigs[k]
		if !ok {
			continue
		}
		p.SetConfig(id, cfg)
		delete(p.PathwayConfigs, k)
		return k, true
	}
	return "", false
}

// needsMigration reports whether any resolved pathway still has its config
// under a legacy key only.
func needsMigration(p *domain.UserProfile, resolutions []catalog.Resolution) bool {
	for _, res := range resolutions {
		if _, ok := p.PathwayConfigs[res.Pathway.ID]; ok {
			continue
		}
		for _, k := range legacyConfigKeys(res) {
			if _, ok := p.PathwayConfigs[k]; ok {
				return true
			}
		}
	}
	return false
}

// configFor reads the pathway's config by id, falling back to a legacy key
// when the config has not been migrated yet.
func configFor(p *domain.UserProfile, res catalog.Resolution) domain.PathwayConfig {
	if cfg, ok := p.PathwayConfigs[res.Pathway.ID]; ok {
		return cfg
	}
	for _, k := range legacyConfigKeys(res) {
		if cfg, ok := p.PathwayConfigs[k]; ok {
			return cfg
		}
	}
	return domain.PathwayConfig{}
}

// editConfig migrates the pathway's config key if needed, then applies fn
// to the id-keyed config.
func editConfig(p *domain.UserProfile, res catalog.Resolution, fn func(cfg *domain.PathwayConfig) error) error {
	migrateConfigKey(p, res)
	cfg := p.ConfigFor(res.Pathway.ID).Clone()
	if err := fn(&cfg); err != nil {
		return err
	}
	p.SetConfig(res.Pathway.ID, cfg)
	return nil
}
