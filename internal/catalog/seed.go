// Package catalog loads the pathway catalog and resolves the pathway
// references stored on user profiles.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexanderramin/pathways/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Seed is the YAML catalog document.
type Seed struct {
	Pathways []domain.Pathway `yaml:"pathways"`
	Rules    `yaml:",inline"`
}

// Rules are the name-resolution heuristics shipped with a catalog.
type Rules struct {
	NameMap        []NameMapping  `yaml:"name_map"`
	Aliases        []Alias        `yaml:"aliases"`
	SpecialtyRules SpecialtyRules `yaml:"specialty_rules"`
}

// NameMapping maps a legacy display name to a pathway id.
type NameMapping struct {
	Name      string `yaml:"name"`
	PathwayID string `yaml:"pathway_id"`
}

// Alias maps any reference containing Contains (case-insensitive) to a
// pathway id.
type Alias struct {
	Contains  string `yaml:"contains"`
	PathwayID string `yaml:"pathway_id"`
}

// SpecialtyRules resolve generic training labels ("core training", "HST")
// using the user's specialty. Rules apply only when the reference contains
// one of Triggers.
type SpecialtyRules struct {
	Triggers []string        `yaml:"triggers"`
	Rules    []SpecialtyRule `yaml:"rules"`
}

type SpecialtyRule struct {
	Specialty []string `yaml:"specialty"`
	// Contains optionally narrows the rule to references containing one of
	// these fragments.
	Contains  []string `yaml:"contains"`
	PathwayID string   `yaml:"pathway_id"`
}

// LoadSeed decodes and validates a catalog document. Categories are
// normalized and missing requirement orders are filled from position.
func LoadSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSeedFile reads a catalog from path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// DefaultSeed returns the built-in catalog.
func DefaultSeed() (*Seed, error) {
	return LoadSeed(bytes.NewReader(defaultCatalog))
}

// LoadSeedOrDefault loads path, or the built-in catalog when path is empty.
func LoadSeedOrDefault(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	return LoadSeedFile(path)
}

func (s *Seed) normalize() {
	for i := range s.Pathways {
		p := &s.Pathways[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		for j := range p.Requirements {
			r := &p.Requirements[j]
			r.Name = strings.TrimSpace(r.Name)
			r.Category = domain.ResolveCategory(string(r.Category))
			if r.Order == 0 {
				r.Order = j + 1
			}
		}
	}
}

// Validate checks ids and names are present and unique, and that every rule
// targets a pathway in the catalog.
func (s *Seed) Validate() error {
	var errs []error
	ids := map[string]bool{}
	names := map[string]bool{}
	for i, p := range s.Pathways {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("pathways[%d]: id is required", i))
		}
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("pathways[%d]: name is required", i))
		}
		if ids[p.ID] {
			errs = append(errs, fmt.Errorf("pathways[%d]: duplicate id %q", i, p.ID))
		}
		if names[strings.ToLower(p.Name)] {
			errs = append(errs, fmt.Errorf("pathways[%d]: duplicate name %q", i, p.Name))
		}
		ids[p.ID] = true
		names[strings.ToLower(p.Name)] = true

		reqNames := map[string]bool{}
		for j, r := range p.Requirements {
			if r.Name == "" {
				errs = append(errs, fmt.Errorf("pathways[%d].requirements[%d]: name is required", i, j))
			}
			if reqNames[r.Name] {
				errs = append(errs, fmt.Errorf("pathways[%d].requirements[%d]: duplicate name %q", i, j, r.Name))
			}
			reqNames[r.Name] = true
		}
	}

	check := func(where, id string) {
		if !ids[id] {
			errs = append(errs, fmt.Errorf("%s: unknown pathway_id %q", where, id))
		}
	}
	for i, m := range s.NameMap {
		check(fmt.Sprintf("name_map[%d]", i), m.PathwayID)
	}
	for i, a := range s.Aliases {
		check(fmt.Sprintf("aliases[%d]", i), a.PathwayID)
	}
	for i, r := range s.SpecialtyRules.Rules {
		check(fmt.Sprintf("specialty_rules.rules[%d]", i), r.PathwayID)
	}
	return errors.Join(errs...)
}

// PathwayPointers returns the seed pathways as pointers for registry use.
func (s *Seed) PathwayPointers() []*domain.Pathway {
	out := make([]*domain.Pathway, len(s.Pathways))
	for i := range s.Pathways {
		out[i] = &s.Pathways[i]
	}
	return out
}
