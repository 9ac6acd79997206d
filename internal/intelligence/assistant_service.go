package intelligence

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/llm"
)

// historyLimit bounds the number of earlier turns sent with a question.
const historyLimit = 20

// AssistantService answers questions about one pathway card, streaming the
// answer as it is generated.
type AssistantService interface {
	Chat(ctx context.Context, req ChatRequest, onDelta func(string)) (*ChatAnswer, error)
}

type ChatRequest struct {
	Card     contract.PathwayCard
	History  []llm.Message
	Question string
}

type ChatAnswer struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type assistantService struct {
	client llm.LLMClient
}

func NewAssistantService(client llm.LLMClient) AssistantService {
	return &assistantService{client: client}
}

func (s *assistantService) Chat(ctx context.Context, req ChatRequest, onDelta func(string)) (*ChatAnswer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	history := req.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	resp, err := s.client.Stream(ctx, llm.GenerateRequest{
		Task:         llm.TaskAssistant,
		SystemPrompt: BuildAssistantSystemPrompt(req.Card),
		History:      history,
		UserPrompt:   question,
	}, onDelta)
	if err != nil {
		return nil, fmt.Errorf("llm assistant chat failed: %w", err)
	}
	return &ChatAnswer{Text: resp.Text, Model: resp.Model}, nil
}

// BuildAssistantSystemPrompt renders the card's progress into the system
// prompt of a roadmap chat.
func BuildAssistantSystemPrompt(card contract.PathwayCard) string {
	var b strings.Builder
	b.WriteString(assistantSystemPreamble)
	b.WriteString("\n\n## Pathway\n")
	fmt.Fprintf(&b, "%s", card.Title)
	if card.Country != "" {
		fmt.Fprintf(&b, " (%s)", card.Country)
	}
	b.WriteString("\n")
	if card.TargetRole != "" {
		fmt.Fprintf(&b, "Target role: %s\n", card.TargetRole)
	}
	fmt.Fprintf(&b, "Progress: %d of %d required milestones (%d%%)\n",
		card.Progress.CompletedCount, card.Progress.TotalRequired, card.Progress.PercentComplete)

	writeNames(&b, "Completed", card.Progress.Completed)
	writeNames(&b, "Next steps", card.Progress.NextSteps)

	var custom []string
	for _, it := range card.Items {
		if it.IsCustom() {
			custom = append(custom, fmt.Sprintf("%s [%s]", it.Name, it.Status))
		}
	}
	if len(custom) > 0 {
		b.WriteString("\n### Personal milestones\n")
		for _, c := range custom {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

func writeNames(b *strings.Builder, title string, reqs []domain.Requirement) {
	if len(reqs) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n", title)
	for _, r := range reqs {
		fmt.Fprintf(b, "- %s (%s)\n", r.Name, r.Category)
	}
}
