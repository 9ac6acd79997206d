package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/pathways/internal/cli/formatter"
	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/service"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ── messages ─────────────────────────────────────────────────────────────────

type dashboardLoadedMsg struct {
	resp *contract.DashboardResponse
	err  error
}

// mutationDoneMsg reports a finished edit. move shifts the cursor on
// success so a reordered item stays selected.
type mutationDoneMsg struct {
	status string
	move   int
	err    error
}

// ── keys ─────────────────────────────────────────────────────────────────────

type dashboardKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextCard  key.Binding
	PrevCard  key.Binding
	Toggle    key.Binding
	Edit      key.Binding
	MoveDown  key.Binding
	MoveUp    key.Binding
	Hide      key.Binding
	UnhideAll key.Binding
	Rename    key.Binding
	Reload    key.Binding
	Quit      key.Binding
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextCard:  key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next pathway")),
		PrevCard:  key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev pathway")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		MoveDown:  key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		MoveUp:    key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		Hide:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hide")),
		UnhideAll: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "unhide all")),
		Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		Reload:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ── model ────────────────────────────────────────────────────────────────────

// dashboardModel is the interactive pathway dashboard. One card is shown at
// a time; edit mode unlocks reordering, hiding and renaming.
type dashboardModel struct {
	ctx  context.Context
	app  *App
	keys dashboardKeyMap
	help help.Model

	resp    *contract.DashboardResponse
	err     error
	loading bool

	card    int
	cursor  int
	editing bool

	renaming bool
	rename   textinput.Model

	status       string
	statusErr    bool
	celebrations []string
	width        int
}

func newDashboardModel(ctx context.Context, app *App) *dashboardModel {
	ti := textinput.New()
	ti.Prompt = "Rename: "
	ti.CharLimit = 120
	ti.Cursor.SetMode(cursor.CursorStatic)

	return &dashboardModel{
		ctx:     ctx,
		app:     app,
		keys:    newDashboardKeyMap(),
		help:    help.New(),
		rename:  ti,
		loading: true,
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return m.load()
}

func (m *dashboardModel) load() tea.Cmd {
	app, ctx := m.app, m.ctx
	return func() tea.Msg {
		resp, err := app.Dashboard.Load(ctx, contract.NewDashboardRequest(app.UserID))
		return dashboardLoadedMsg{resp: resp, err: err}
	}
}

func (m *dashboardModel) mutate(status string, move int, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return mutationDoneMsg{status: status, move: move, err: fn(ctx)}
	}
}

func (m *dashboardModel) currentCard() *contract.PathwayCard {
	if m.resp == nil || m.card >= len(m.resp.Cards) {
		return nil
	}
	return &m.resp.Cards[m.card]
}

func (m *dashboardModel) currentItem() (domain.UnifiedItem, bool) {
	card := m.currentCard()
	if card == nil || m.cursor >= len(card.Items) {
		return domain.UnifiedItem{}, false
	}
	return card.Items[m.cursor], true
}

func (m *dashboardModel) clamp() {
	if m.resp == nil || len(m.resp.Cards) == 0 {
		m.card, m.cursor = 0, 0
		return
	}
	m.card = min(max(m.card, 0), len(m.resp.Cards)-1)
	n := len(m.resp.Cards[m.card].Items)
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
}

// ── update ───────────────────────────────────────────────────────────────────

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case dashboardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.resp = msg.resp
		m.celebrations = m.celebrations[:0]
		for _, card := range msg.resp.Cards {
			for _, th := range card.Crossed {
				m.celebrations = append(m.celebrations, formatter.Celebration(card.Title, th))
			}
		}
		m.clamp()
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.status, m.statusErr = statusForError(msg.err), true
			return m, nil
		}
		m.status, m.statusErr = msg.status, false
		m.cursor += msg.move
		return m, m.load()

	case tea.KeyMsg:
		if m.renaming {
			return m.updateRename(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *dashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clamp()
		return m, nil
	case key.Matches(msg, m.keys.NextCard):
		m.card++
		m.cursor = 0
		m.clamp()
		return m, nil
	case key.Matches(msg, m.keys.PrevCard):
		m.card--
		m.cursor = 0
		m.clamp()
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.status = ""
		return m, m.load()
	case key.Matches(msg, m.keys.Edit):
		m.editing = !m.editing
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle()
	}

	if !m.editing {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.MoveDown):
		return m, m.reorder(1)
	case key.Matches(msg, m.keys.MoveUp):
		return m, m.reorder(-1)
	case key.Matches(msg, m.keys.Hide):
		return m, m.hide()
	case key.Matches(msg, m.keys.UnhideAll):
		return m, m.unhideAll()
	case key.Matches(msg, m.keys.Rename):
		if it, ok := m.currentItem(); ok {
			m.renaming = true
			m.rename.SetValue("")
			m.rename.Placeholder = it.Name
			return m, m.rename.Focus()
		}
	}
	return m, nil
}

func (m *dashboardModel) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.renaming = false
		m.rename.Blur()
		return m, nil
	case tea.KeyEnter:
		m.renaming = false
		m.rename.Blur()
		return m, m.submitRename(m.rename.Value())
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

// ── actions ──────────────────────────────────────────────────────────────────

func (m *dashboardModel) toggle() tea.Cmd {
	card := m.currentCard()
	it, ok := m.currentItem()
	if !ok {
		return nil
	}
	req := contract.ToggleRequest{UserID: m.app.UserID, PathwayID: card.PathwayID}
	if it.IsCustom() {
		req.CustomID = it.ID
	} else {
		req.MilestoneName = it.OriginalID
	}
	return m.mutate("", 0, func(ctx context.Context) error {
		_, err := m.app.Milestones.Toggle(ctx, req)
		return err
	})
}

func (m *dashboardModel) reorder(delta int) tea.Cmd {
	card := m.currentCard()
	it, ok := m.currentItem()
	target := m.cursor + delta
	if !ok || target < 0 || target >= len(card.Items) {
		return nil
	}
	req := contract.ReorderRequest{
		UserID:    m.app.UserID,
		PathwayID: card.PathwayID,
		ActiveID:  it.ID,
		OverID:    card.Items[target].ID,
	}
	return m.mutate("Moved "+it.Name, delta, func(ctx context.Context) error {
		return m.app.Milestones.Reorder(ctx, req)
	})
}

func (m *dashboardModel) hide() tea.Cmd {
	card := m.currentCard()
	it, ok := m.currentItem()
	if !ok {
		return nil
	}
	req := contract.VisibilityRequest{UserID: m.app.UserID, PathwayID: card.PathwayID, Name: it.OriginalID}
	return m.mutate("Hid "+it.Name+", press u to restore", 0, func(ctx context.Context) error {
		return m.app.Milestones.Hide(ctx, req)
	})
}

func (m *dashboardModel) unhideAll() tea.Cmd {
	card := m.currentCard()
	if card == nil {
		return nil
	}
	req := contract.VisibilityRequest{UserID: m.app.UserID, PathwayID: card.PathwayID}
	return m.mutate(fmt.Sprintf("Restored %d hidden", len(card.Hidden)), 0, func(ctx context.Context) error {
		return m.app.Milestones.UnhideAll(ctx, req)
	})
}

func (m *dashboardModel) submitRename(name string) tea.Cmd {
	card := m.currentCard()
	it, ok := m.currentItem()
	if !ok {
		return nil
	}
	req := contract.RenameRequest{
		UserID:    m.app.UserID,
		PathwayID: card.PathwayID,
		ItemID:    it.OriginalID,
		Custom:    it.IsCustom(),
		Name:      name,
	}
	return m.mutate("Renamed", 0, func(ctx context.Context) error {
		return m.app.Milestones.Rename(ctx, req)
	})
}

// statusForError turns a failed edit into the status line text.
func statusForError(err error) string {
	switch {
	case errors.Is(err, progress.ErrCrossCategory):
		return "Milestones can only be reordered within the same category."
	case errors.Is(err, service.ErrBusy):
		return "Still saving the previous change, try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "Saving timed out. Your change was undone."
	case errors.Is(err, service.ErrRemoteWrite):
		return "Saving failed. Your change was undone."
	default:
		return "Error: " + err.Error()
	}
}

// ── view ─────────────────────────────────────────────────────────────────────

func (m *dashboardModel) ShortHelp() []key.Binding {
	if m.renaming {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	if m.editing {
		return []key.Binding{m.keys.MoveDown, m.keys.MoveUp, m.keys.Hide, m.keys.UnhideAll, m.keys.Rename, m.keys.Edit, m.keys.Quit}
	}
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.NextCard, m.keys.Edit, m.keys.Quit}
}

func (m *dashboardModel) View() string {
	if m.loading {
		return "\n  " + formatter.Dim("Loading...")
	}
	if m.err != nil {
		return "\n  " + formatter.StyleRed.Render("Error: "+m.err.Error())
	}
	if m.resp == nil || len(m.resp.Cards) == 0 {
		return "\n  " + formatter.Dim("Not following any pathway yet. Try `pathways profile follow <pathway>`.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + m.renderTabs() + "\n\n")

	opts := formatter.CardOptions{Cursor: m.cursor, Editing: m.editing}
	if m.width > 8 {
		opts.Width = m.width - 8
	}
	b.WriteString(formatter.FormatCard(*m.currentCard(), opts))
	b.WriteString("\n")

	for _, c := range m.celebrations {
		b.WriteString("\n" + c)
	}
	if m.renaming {
		b.WriteString("\n" + m.rename.View())
	}
	if m.editing {
		b.WriteString("\n" + formatter.StylePurple.Render("EDIT MODE"))
	}
	if m.status != "" {
		style := formatter.StyleGreen
		if m.statusErr {
			style = formatter.StyleRed
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(m.ShortHelp()))
	return b.String()
}

// renderTabs lists followed pathways with a compact bar each.
func (m *dashboardModel) renderTabs() string {
	tabs := make([]string, len(m.resp.Cards))
	for i, c := range m.resp.Cards {
		label := c.Title + " " + formatter.RenderCompactBar(c.Progress.PercentComplete, 6)
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == m.card {
			style = style.Foreground(formatter.ColorHeader).Bold(true)
		} else {
			style = style.Foreground(formatter.ColorDim)
		}
		tabs[i] = style.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
