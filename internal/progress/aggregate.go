package progress

import (
	"math"

	"github.com/alexanderramin/pathways/internal/domain"
)

// NextStepsLimit is the number of missing requirements surfaced as next steps.
const NextStepsLimit = 3

// Summary is the progress of one pathway. Only standard required
// requirements are counted; custom milestones never move the percentage.
type Summary struct {
	Completed       []domain.Requirement `json:"completed"`
	Missing         []domain.Requirement `json:"missing"`
	CompletedCount  int                  `json:"completed_count"`
	TotalRequired   int                  `json:"total_required"`
	PercentComplete int                  `json:"percent_complete"`
	NextSteps       []domain.Requirement `json:"next_steps"`
}

// CompletedNames returns the names of completed requirements in order.
func (s Summary) CompletedNames() []string {
	out := make([]string, len(s.Completed))
	for i, r := range s.Completed {
		out[i] = r.Name
	}
	return out
}

// Summarize computes completion over the pathway's required requirements.
// A requirement is complete when a done status row matches its database id,
// its name, or any of its alternatives.
func Summarize(p *domain.Pathway, statuses []domain.UserMilestoneStatus) Summary {
	var s Summary
	if p == nil {
		return s
	}
	lookup := newStatusLookup(statuses)
	for _, req := range p.RequiredRequirements() {
		if lookup.done(req) {
			s.Completed = append(s.Completed, req)
		} else {
			s.Missing = append(s.Missing, req)
		}
	}
	s.CompletedCount = len(s.Completed)
	s.TotalRequired = s.CompletedCount + len(s.Missing)
	s.PercentComplete = Percent(s.CompletedCount, s.TotalRequired)

	n := len(s.Missing)
	if n > NextStepsLimit {
		n = NextStepsLimit
	}
	s.NextSteps = s.Missing[:n:n]
	return s
}

// Percent rounds completed/total to the nearest integer percent. An empty
// pathway is 0%.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
