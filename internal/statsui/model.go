// Package statsui provides the Bubble Tea history browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/stats"
	"github.com/dkarlsv/mindforge/internal/store"
)

const (
	tabOverview = iota
	tabHistory
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	rows   []model.SessionRow
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	history   table.Model

	width  int
	height int
}

// NewModel constructs a history UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "History"},
	}
	m.overview = viewport.New(0, 0)
	m.history = table.New(
		table.WithColumns(historyColumns()),
		table.WithFocused(true),
	)
	m.refresh()
	return m
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "Played", Width: 16},
		{Title: "Task", Width: 10},
		{Title: "Difficulty", Width: 10},
		{Title: "Accuracy", Width: 9},
		{Title: "Score", Width: 6},
		{Title: "Sparks", Width: 6},
	}
}

func (m *Model) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := m.store.ListSessions(ctx, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.rows = rows
	m.rebuildViews()
}

func (m *Model) rebuildViews() {
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, m.rows, 0); err != nil {
		m.errMsg = err.Error()
	}
	if err := stats.RenderHistory(&buf, m.rows); err != nil {
		m.errMsg = err.Error()
	}
	m.overview.SetContent(buf.String())

	tableRows := make([]table.Row, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		tableRows = append(tableRows, table.Row{
			r.PlayedAt.Local().Format("2006-01-02 15:04"),
			r.Task,
			r.Difficulty,
			fmt.Sprintf("%.1f%%", r.Accuracy),
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%d", r.Reward),
		})
	}
	m.history.SetRows(tableRows)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := m.height - 4
		if contentHeight < 1 {
			contentHeight = 1
		}
		m.overview.Width = m.width
		m.overview.Height = contentHeight
		m.history.SetHeight(contentHeight)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right":
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, nil
		case "shift+tab", "left":
			m.activeTab = (m.activeTab + len(m.tabs) - 1) % len(m.tabs)
			return m, nil
		}
	}
	var cmd tea.Cmd
	switch m.activeTab {
	case tabOverview:
		m.overview, cmd = m.overview.Update(msg)
	case tabHistory:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	nav := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			nav[i] = activeNavStyle.Render(tab)
		} else {
			nav[i] = inactiveNavStyle.Render(tab)
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center, nav...)
	if m.errMsg != "" {
		return header + "\n" + errorStyle.Render(m.errMsg)
	}
	var body string
	switch m.activeTab {
	case tabOverview:
		body = m.overview.View()
	case tabHistory:
		body = m.history.View()
	}
	footer := headerStyle.Render("tab switch · q quit")
	return header + "\n" + body + "\n" + footer
}
