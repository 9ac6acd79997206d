package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/intelligence"
	"github.com/alexanderramin/pathways/internal/search"
	"github.com/charmbracelet/lipgloss"
)

// FormatPathwayList renders the catalog as a table.
func FormatPathwayList(pathways []*domain.Pathway) string {
	if len(pathways) == 0 {
		return Dim("The catalog is empty. Run `pathways pathway seed` to load it.") + "\n"
	}
	rows := make([][]string, 0, len(pathways))
	for _, p := range pathways {
		rows = append(rows, []string{
			StyleBlue.Render(p.ID),
			p.Name,
			orDash(p.Country),
			orDash(p.TargetRole),
			fmt.Sprintf("%d", len(p.RequiredRequirements())),
		})
	}
	return RenderTable([]string{"ID", "NAME", "COUNTRY", "ROLE", "REQUIRED"}, rows)
}

// FormatResolution renders a resolved pathway with its requirements grouped
// by category.
func FormatResolution(res catalog.Resolution) string {
	p := res.Pathway
	var b strings.Builder
	b.WriteString(Header(p.DisplayTitle()))
	b.WriteString("\n")
	if p.Description != "" {
		b.WriteString(p.Description + "\n")
	}
	b.WriteString(Dim(fmt.Sprintf("id %s · matched by %s", p.ID, res.MatchedFrom)) + "\n")

	if len(p.Requirements) == 0 {
		b.WriteString("\n" + Dim("No requirements in the catalog for this pathway.") + "\n")
		return b.String()
	}

	byCat := map[domain.Category][]domain.Requirement{}
	for _, r := range p.Requirements {
		c := domain.ResolveCategory(string(r.Category))
		byCat[c] = append(byCat[c], r)
	}
	for _, c := range domain.CategoryOrder {
		reqs := byCat[c]
		if len(reqs) == 0 {
			continue
		}
		b.WriteString("\n" + categoryDivider(c) + "\n")
		for _, r := range reqs {
			line := "  • " + r.Name
			if !r.Required {
				line += Dim(" (optional)")
			}
			if len(r.Alternatives) > 0 {
				line += Dim(" or " + strings.Join(r.Alternatives, ", "))
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func FormatSearch(resp search.Response) string {
	if len(resp.Hits) == 0 {
		return Dim(fmt.Sprintf("No pathways match %q.", resp.Query)) + "\n"
	}
	rows := make([][]string, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		rows = append(rows, []string{StyleBlue.Render(h.ID), h.Name, orDash(h.Country), orDash(h.TargetRole)})
	}
	return RenderTable([]string{"ID", "NAME", "COUNTRY", "ROLE"}, rows) +
		Dim(fmt.Sprintf("%d of %d via %s", len(resp.Hits), resp.Total, resp.Source)) + "\n"
}

func FormatMatches(res *intelligence.MatchResult) string {
	if len(res.Matches) == 0 {
		return Dim("No confident pathway match. Try `pathways pathway search`.") + "\n"
	}
	var b strings.Builder
	for i, m := range res.Matches {
		fmt.Fprintf(&b, "%d. %s %s %s\n", i+1, StyleBlue.Render(m.PathwayID), m.Name,
			confidenceStyle(m.Confidence).Render(fmt.Sprintf("%.0f%%", m.Confidence*100)))
		if m.Reason != "" {
			b.WriteString("   " + Dim(m.Reason) + "\n")
		}
	}
	note := "matched by " + string(res.Source)
	if res.Dropped > 0 {
		note += fmt.Sprintf(", %d suggestions dropped", res.Dropped)
	}
	b.WriteString(Dim(note) + "\n")
	return b.String()
}

func confidenceStyle(c float64) lipgloss.Style {
	switch {
	case c >= 0.8:
		return StyleGreen
	case c >= 0.5:
		return StyleYellow
	default:
		return StyleDim
	}
}

// FormatRefresh summarizes an AI milestone refresh.
func FormatRefresh(res *intelligence.RefreshResult) string {
	var b strings.Builder
	b.WriteString(Header("Refreshed " + res.Pathway.DisplayTitle()))
	b.WriteString("\n")
	for _, r := range res.Generated {
		b.WriteString("  • " + r.Name + Dim(" ("+string(domain.ResolveCategory(string(r.Category)))+")") + "\n")
	}
	fmt.Fprintf(&b, "\n%s added, %s updated, %s unchanged\n",
		StyleGreen.Render(fmt.Sprint(res.Diff.Added)),
		StyleYellow.Render(fmt.Sprint(res.Diff.Updated)),
		Dim(fmt.Sprint(res.Diff.Unchanged)))
	if !res.Stored {
		b.WriteString(Dim("Not saved to the catalog.") + "\n")
	}
	if res.Disclaimer != "" {
		b.WriteString(Dim(res.Disclaimer) + "\n")
	}
	return b.String()
}

// FormatProfile renders a user profile summary.
func FormatProfile(p *domain.UserProfile) string {
	var b strings.Builder
	b.WriteString(Header(p.DisplayName))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", Dim("id:       "), p.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("specialty:"), orDash(p.Specialty))
	if len(p.PathwayRefs) == 0 {
		fmt.Fprintf(&b, "%s %s\n", Dim("following:"), "--")
	} else {
		fmt.Fprintf(&b, "%s %s\n", Dim("following:"), strings.Join(p.PathwayRefs, ", "))
	}
	fmt.Fprintf(&b, "%s %d\n", Dim("custom:   "), len(p.CustomMilestones))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return StyleDim.Render("--")
	}
	return s
}
