package cli

import (
	"errors"
	"strings"

	"github.com/alexanderramin/pathways/internal/cli/formatter"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func pathwaysHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// categoryOptions lists every category in display order, labelled.
func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(domain.CategoryOrder))
	for _, c := range domain.CategoryOrder {
		opts = append(opts, huh.NewOption(c.Meta().Label, string(c)))
	}
	return opts
}

func validateMilestoneName(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("name is required")
	}
	return nil
}

// customMilestoneForm asks for a name and category.
func customMilestoneForm(name, category *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Milestone").
				Placeholder("Book flights to Dublin").
				Value(name).
				Validate(validateMilestoneName),
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions()...).
				Value(category),
		),
	).WithTheme(pathwaysHuhTheme()).WithShowHelp(false)
}
