package testutil

import (
	"time"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/google/uuid"
)

// Pathway options
type PathwayOption func(*domain.Pathway)

func WithPathwayID(id string) PathwayOption {
	return func(p *domain.Pathway) {
		p.ID = id
	}
}

func WithCountry(c string) PathwayOption {
	return func(p *domain.Pathway) {
		p.Country = c
	}
}

func WithRequirement(name string, cat domain.Category, opts ...RequirementOption) PathwayOption {
	return func(p *domain.Pathway) {
		r := domain.Requirement{
			Name:     name,
			Category: cat,
			Required: true,
			Order:    len(p.Requirements) + 1,
		}
		for _, opt := range opts {
			opt(&r)
		}
		p.Requirements = append(p.Requirements, r)
	}
}

func NewTestPathway(name string, opts ...PathwayOption) *domain.Pathway {
	p := &domain.Pathway{
		ID:   uuid.New().String(),
		Name: name,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Requirement options
type RequirementOption func(*domain.Requirement)

func Optional() RequirementOption {
	return func(r *domain.Requirement) {
		r.Required = false
	}
}

func WithAlternatives(alts ...string) RequirementOption {
	return func(r *domain.Requirement) {
		r.Alternatives = alts
	}
}

func WithResourceURL(u string) RequirementOption {
	return func(r *domain.Requirement) {
		r.ResourceURL = u
	}
}

// NewIrishGPPathway is the standard multi-category pathway used across
// service tests: two exams, a registration, a language test and a document.
func NewIrishGPPathway() *domain.Pathway {
	return NewTestPathway("Irish GP Training",
		WithPathwayID("ie-gp"),
		WithCountry("Ireland"),
		WithRequirement("IMC Registration", domain.CategoryRegistration),
		WithRequirement("IELTS", domain.CategoryLanguage, WithAlternatives("OET")),
		WithRequirement("PRES", domain.CategoryExam),
		WithRequirement("MRCGP", domain.CategoryExam),
		WithRequirement("Certificate of Good Standing", domain.CategoryDocument),
		WithRequirement("Optional Course", domain.CategoryTraining, Optional()),
	)
}

// Profile options
type ProfileOption func(*domain.UserProfile)

func WithPathwayRefs(refs ...string) ProfileOption {
	return func(p *domain.UserProfile) {
		p.PathwayRefs = refs
	}
}

func WithSpecialty(s string) ProfileOption {
	return func(p *domain.UserProfile) {
		p.Specialty = s
	}
}

func WithCustomMilestone(cm domain.CustomMilestone) ProfileOption {
	return func(p *domain.UserProfile) {
		p.CustomMilestones = append(p.CustomMilestones, cm)
	}
}

func WithPathwayConfig(key string, cfg domain.PathwayConfig) ProfileOption {
	return func(p *domain.UserProfile) {
		p.SetConfig(key, cfg)
	}
}

func NewTestProfile(id string, opts ...ProfileOption) *domain.UserProfile {
	now := time.Now().UTC()
	p := &domain.UserProfile{
		ID:          id,
		DisplayName: "Dr " + id,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestCustomMilestone(name, pathwayRef string) domain.CustomMilestone {
	return domain.CustomMilestone{
		ID:         uuid.New().String(),
		Name:       name,
		PathwayRef: pathwayRef,
		CreatedAt:  time.Now().UTC(),
	}
}
