package intelligence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/llm"
)

// MatchSource records whether a match came from the model or the catalog
// resolver.
type MatchSource string

const (
	SourceLLM           MatchSource = "llm"
	SourceDeterministic MatchSource = "deterministic"
)

// maxMatches caps the number of pathways suggested for one goal.
const maxMatches = 3

// IntentService maps a free-text career goal onto catalog pathways.
type IntentService interface {
	Match(ctx context.Context, text string) (*MatchResult, error)
}

// Catalog supplies the registry the matches are checked against.
type Catalog interface {
	Registry(ctx context.Context) (*catalog.Registry, error)
}

type PathwayMatch struct {
	PathwayID  string  `json:"pathway_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

type MatchResult struct {
	Matches []PathwayMatch `json:"matches"`
	Source  MatchSource    `json:"source"`
	// Dropped counts model suggestions discarded for unknown ids or low
	// confidence.
	Dropped int `json:"dropped,omitempty"`
}

type intentService struct {
	client        llm.LLMClient
	catalog       Catalog
	minConfidence float64
}

func NewIntentService(client llm.LLMClient, cat Catalog, minConfidence float64) IntentService {
	return &intentService{client: client, catalog: cat, minConfidence: minConfidence}
}

type intentLLMResponse struct {
	Matches []PathwayMatch `json:"matches"`
}

func (s *intentService) Match(ctx context.Context, text string) (*MatchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("goal text is required")
	}
	reg, err := s.catalog.Registry(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	res, err := s.matchLLM(ctx, reg, text)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, llm.ErrDisabled) || errors.Is(err, llm.ErrUnavailable) {
		return deterministicMatch(reg, text), nil
	}
	return nil, err
}

func (s *intentService) matchLLM(ctx context.Context, reg *catalog.Registry, text string) (*MatchResult, error) {
	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskIntent,
		SystemPrompt: intentSystemPrompt,
		UserPrompt:   buildIntentUserPrompt(reg, text),
	})
	if err != nil {
		return nil, fmt.Errorf("llm intent match failed: %w", err)
	}

	parsed, err := llm.ExtractJSON[intentLLMResponse](resp.Text, validateIntentResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to extract intent matches: %w", err)
	}

	res := &MatchResult{Matches: []PathwayMatch{}, Source: SourceLLM}
	seen := make(map[string]bool, len(parsed.Matches))
	for _, m := range parsed.Matches {
		p, ok := reg.ByID(m.PathwayID)
		if !ok || m.Confidence < s.minConfidence || seen[m.PathwayID] {
			res.Dropped++
			continue
		}
		seen[m.PathwayID] = true
		m.Name = p.Name
		res.Matches = append(res.Matches, m)
	}
	sort.SliceStable(res.Matches, func(i, j int) bool {
		return res.Matches[i].Confidence > res.Matches[j].Confidence
	})
	if len(res.Matches) > maxMatches {
		res.Matches = res.Matches[:maxMatches]
	}
	return res, nil
}

// deterministicMatch falls back to the catalog resolver when no model is
// reachable. Synthetic resolutions are not matches.
func deterministicMatch(reg *catalog.Registry, text string) *MatchResult {
	res := &MatchResult{Matches: []PathwayMatch{}, Source: SourceDeterministic}
	r := reg.Resolve(text, "")
	if r.MatchedFrom == catalog.MatchSynthetic {
		return res
	}
	confidence := 1.0
	if r.MatchedFrom == catalog.MatchFuzzy {
		confidence = 0.6
	}
	res.Matches = append(res.Matches, PathwayMatch{
		PathwayID:  r.Pathway.ID,
		Name:       r.Pathway.Name,
		Confidence: confidence,
		Reason:     "matched " + string(r.MatchedFrom),
	})
	return res
}

func buildIntentUserPrompt(reg *catalog.Registry, text string) string {
	var b strings.Builder
	b.WriteString("## Catalog\n")
	for _, p := range reg.All() {
		fmt.Fprintf(&b, "%s: %s (%s, %s)\n", p.ID, p.Name, p.Country, p.TargetRole)
	}
	b.WriteString("\n## Goal\n")
	b.WriteString(text)
	return b.String()
}

func validateIntentResponse(resp intentLLMResponse) error {
	for i, m := range resp.Matches {
		if m.PathwayID == "" {
			return fmt.Errorf("matches[%d]: pathway_id is required", i)
		}
		if m.Confidence < 0 || m.Confidence > 1 {
			return fmt.Errorf("matches[%d]: confidence must be between 0 and 1, got %f", i, m.Confidence)
		}
	}
	return nil
}
