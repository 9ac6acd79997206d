package intelligence

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/llm"
)

// MilestoneDraftService regenerates the requirement list of a pathway.
type MilestoneDraftService interface {
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResult, error)
}

// PathwaySaver persists a refreshed catalog pathway.
type PathwaySaver interface {
	Save(ctx context.Context, p *domain.Pathway) error
}

type RefreshRequest struct {
	Pathway   *domain.Pathway
	Specialty string
}

// Diff counts how a refresh changed the requirement list. Requirements are
// never removed by a refresh.
type Diff struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

func (d Diff) Changed() bool {
	return d.Added > 0 || d.Updated > 0
}

type RefreshResult struct {
	Pathway    *domain.Pathway      `json:"pathway"`
	Generated  []domain.Requirement `json:"generated"`
	Diff       Diff                 `json:"diff"`
	Disclaimer string               `json:"disclaimer,omitempty"`
	// Stored is false for synthetic pathways, which have no catalog row.
	Stored bool `json:"stored"`
}

type milestoneDraftService struct {
	client llm.LLMClient
	saver  PathwaySaver
}

func NewMilestoneDraftService(client llm.LLMClient, saver PathwaySaver) MilestoneDraftService {
	return &milestoneDraftService{client: client, saver: saver}
}

type generatedMilestone struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	IsRequired   bool   `json:"is_required"`
	DisplayOrder int    `json:"display_order"`
	ResourceURL  string `json:"resource_url"`
}

type milestoneLLMResponse struct {
	Milestones []generatedMilestone `json:"milestones"`
	Disclaimer string               `json:"disclaimer"`
}

func (s *milestoneDraftService) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResult, error) {
	if req.Pathway == nil {
		return nil, fmt.Errorf("pathway is required")
	}

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskMilestones,
		SystemPrompt: milestoneSystemPrompt,
		UserPrompt:   buildMilestoneUserPrompt(req.Pathway, req.Specialty),
	})
	if err != nil {
		return nil, fmt.Errorf("llm milestone generation failed: %w", err)
	}

	parsed, err := llm.ExtractJSON[milestoneLLMResponse](resp.Text, validateMilestoneResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to extract milestones: %w", err)
	}

	generated := make([]domain.Requirement, len(parsed.Milestones))
	for i, m := range parsed.Milestones {
		generated[i] = domain.Requirement{
			Name:        strings.TrimSpace(m.Name),
			Category:    domain.ResolveCategory(m.Category),
			Required:    m.IsRequired,
			Order:       m.DisplayOrder,
			Description: strings.TrimSpace(m.Description),
			ResourceURL: strings.TrimSpace(m.ResourceURL),
		}
	}

	merged, diff := MergeRequirements(req.Pathway, generated)
	result := &RefreshResult{
		Pathway:    merged,
		Generated:  generated,
		Diff:       diff,
		Disclaimer: parsed.Disclaimer,
	}

	if req.Pathway.IsSynthetic() || s.saver == nil || !diff.Changed() {
		return result, nil
	}
	if err := s.saver.Save(ctx, merged); err != nil {
		return nil, fmt.Errorf("saving refreshed pathway %s: %w", merged.ID, err)
	}
	result.Stored = true
	return result, nil
}

// MergeRequirements folds generated requirements into a copy of p, matching
// by case-insensitive name. Matched requirements keep their database id and
// take the generated fields; new ones are appended after the current
// highest order.
func MergeRequirements(p *domain.Pathway, generated []domain.Requirement) (*domain.Pathway, Diff) {
	merged := p.Clone()
	index := make(map[string]int, len(merged.Requirements))
	maxOrder := 0
	for i, r := range merged.Requirements {
		index[strings.ToLower(r.Name)] = i
		if r.Order > maxOrder {
			maxOrder = r.Order
		}
	}

	var diff Diff
	for _, g := range generated {
		i, ok := index[strings.ToLower(g.Name)]
		if !ok {
			maxOrder++
			g.Order = maxOrder
			g.DBID = ""
			merged.Requirements = append(merged.Requirements, g)
			index[strings.ToLower(g.Name)] = len(merged.Requirements) - 1
			diff.Added++
			continue
		}

		cur := merged.Requirements[i]
		next := cur
		next.Category = g.Category
		next.Required = g.Required
		if g.Description != "" {
			next.Description = g.Description
		}
		if g.ResourceURL != "" {
			next.ResourceURL = g.ResourceURL
		}
		if sameRequirement(cur, next) {
			diff.Unchanged++
			continue
		}
		merged.Requirements[i] = next
		diff.Updated++
	}
	return merged, diff
}

func sameRequirement(a, b domain.Requirement) bool {
	return a.Category == b.Category &&
		a.Required == b.Required &&
		a.Description == b.Description &&
		a.ResourceURL == b.ResourceURL
}

func buildMilestoneUserPrompt(p *domain.Pathway, specialty string) string {
	var b strings.Builder
	b.WriteString("## Pathway\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	if p.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", p.Country)
	}
	if p.TargetRole != "" {
		fmt.Fprintf(&b, "Target role: %s\n", p.TargetRole)
	}
	if specialty != "" {
		fmt.Fprintf(&b, "Specialty: %s\n", specialty)
	}
	if len(p.Requirements) > 0 {
		b.WriteString("\n## Existing milestones\n")
		for _, r := range p.Requirements {
			fmt.Fprintf(&b, "- %s (%s)\n", r.Name, r.Category)
		}
	}
	return b.String()
}

func validateMilestoneResponse(resp milestoneLLMResponse) error {
	if len(resp.Milestones) == 0 {
		return fmt.Errorf("at least one milestone is required")
	}
	seen := make(map[string]bool, len(resp.Milestones))
	for i, m := range resp.Milestones {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name == "" {
			return fmt.Errorf("milestones[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("milestones[%d]: duplicate name %q", i, m.Name)
		}
		seen[name] = true
	}
	return nil
}
