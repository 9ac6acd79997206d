package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

// CardOptions controls interactive decorations. Cursor is an index into
// card.Items; -1 renders no cursor.
type CardOptions struct {
	Cursor  int
	Editing bool
	Width   int
}

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(1, 2)
	if title != "" {
		content = StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content
	}
	return box.Render(content)
}

// FormatDashboard renders every card of a dashboard response.
func FormatDashboard(resp *contract.DashboardResponse) string {
	var b strings.Builder
	title := resp.DisplayName
	if resp.Specialty != "" {
		title += Dim(" · " + resp.Specialty)
	}
	b.WriteString(Header("Pathways"))
	b.WriteString("\n" + title + "\n\n")

	if len(resp.Cards) == 0 {
		b.WriteString(Dim("Not following any pathway yet. Try `pathways profile follow <pathway>`."))
		b.WriteString("\n")
		return b.String()
	}
	for _, card := range resp.Cards {
		b.WriteString(FormatCard(card, CardOptions{Cursor: -1}))
		b.WriteString("\n")
		for _, th := range card.Crossed {
			b.WriteString(Celebration(card.Title, th))
			b.WriteString("\n")
		}
	}
	for _, m := range resp.Migrated {
		b.WriteString(Dim(fmt.Sprintf("Moved saved settings for %s from %q.", m.PathwayID, m.From)))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatCard renders one pathway: title, progress bar, category sections
// with dividers, next steps and hidden requirements.
func FormatCard(card contract.PathwayCard, opts CardOptions) string {
	var b strings.Builder

	b.WriteString(cardSubtitle(card))
	b.WriteString(RenderProgress(card.Progress.PercentComplete, barWidth))
	b.WriteString(Dim(fmt.Sprintf("  %d of %d required", card.Progress.CompletedCount, card.Progress.TotalRequired)))
	b.WriteString("\n")

	idx := 0
	for _, sec := range card.Sections {
		b.WriteString("\n")
		b.WriteString(categoryDivider(sec.Category))
		b.WriteString("\n")
		for _, it := range sec.Items {
			b.WriteString(itemLine(it, idx == opts.Cursor, opts.Editing))
			b.WriteString("\n")
			idx++
		}
	}
	if len(card.Items) == 0 {
		b.WriteString("\n" + Dim("No milestones yet. Add your own with `pathways milestone add`.") + "\n")
	}

	if steps := card.Progress.NextSteps; len(steps) > 0 {
		names := make([]string, len(steps))
		for i, r := range steps {
			names[i] = r.Name
		}
		b.WriteString("\n" + StyleBlue.Render("Next: ") + strings.Join(names, ", ") + "\n")
	}
	if len(card.Hidden) > 0 {
		names := make([]string, len(card.Hidden))
		for i, r := range card.Hidden {
			names[i] = r.Name
		}
		b.WriteString(Dim(fmt.Sprintf("Hidden (%d): %s", len(names), strings.Join(names, ", "))) + "\n")
	}

	out := strings.TrimRight(b.String(), "\n")
	if opts.Width > 0 {
		out = lipgloss.NewStyle().MaxWidth(opts.Width).Render(out)
	}
	return RenderBox(card.Title, out)
}

func cardSubtitle(card contract.PathwayCard) string {
	var parts []string
	if card.Country != "" {
		parts = append(parts, card.Country)
	}
	if card.TargetRole != "" {
		parts = append(parts, card.TargetRole)
	}
	if card.EstimatedDuration != "" {
		parts = append(parts, card.EstimatedDuration)
	}
	if card.Manual {
		parts = append(parts, "not in catalog")
	} else if card.Title != card.Name {
		parts = append(parts, "catalog: "+card.Name)
	}
	if len(parts) == 0 {
		return ""
	}
	return Dim(strings.Join(parts, " · ")) + "\n"
}

func categoryDivider(c domain.Category) string {
	label := strings.ToUpper(c.Meta().Label)
	return CategoryStyle(c).Render(label) + " " + StyleDim.Render(strings.Repeat("─", max(2, 28-len(label))))
}

func itemLine(it domain.UnifiedItem, selected, editing bool) string {
	prefix := "  "
	if selected {
		prefix = StyleHeader.Render("▸ ")
		if editing {
			prefix = StylePurple.Render("↕ ")
		}
	}
	name := it.Name
	if selected {
		name = StyleBold.Render(name)
	}
	if it.Status == domain.ItemCompleted {
		name = StyleDim.Render(it.Name)
	}
	line := prefix + StatusIcon(it.Status) + " " + name
	if it.IsCustom() {
		line += Dim(" (custom)")
	}
	if it.Name != it.OriginalID && !it.IsCustom() {
		line += Dim(" ← " + it.OriginalID)
	}
	return line
}

// Celebration renders the banner for a crossed progress threshold.
func Celebration(title string, th progress.Threshold) string {
	switch th {
	case progress.ThresholdComplete:
		return StyleGreen.Bold(true).Render(fmt.Sprintf("🎉 %s complete! Every required milestone is done.", title))
	case progress.ThresholdHalfway:
		return StyleYellow.Bold(true).Render(fmt.Sprintf("🎉 Halfway there on %s!", title))
	default:
		return ""
	}
}
