// Package tui provides the Bubble Tea training interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/session"
	"github.com/dkarlsv/mindforge/internal/store"
	"github.com/dkarlsv/mindforge/internal/task"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	goodStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7CC86A"))
	badStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	stimulusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type eventMsg struct {
	ev session.Event
}

// Model implements the Bubble Tea training UI on top of the session
// controller.
type Model struct {
	ctrl   *session.Controller
	st     *store.Store
	events <-chan session.Event

	difficulty string
	width      int
	height     int

	tasks   []task.Task
	taskIdx int
	diffIdx int
	menuErr string

	spec       model.TrialSpec
	haveSpec   bool
	windowOpen bool
	claimed    map[string]bool
	feedback   string
	tally      int
	tower      *towerState

	saved        bool
	submitStatus string
}

// NewModel constructs the training TUI. st may be nil to skip local history.
func NewModel(ctrl *session.Controller, st *store.Store, events <-chan session.Event, difficulty string) *Model {
	m := &Model{
		ctrl:       ctrl,
		st:         st,
		events:     events,
		difficulty: difficulty,
		tasks:      task.All(),
		claimed:    map[string]bool{},
	}
	for i, name := range task.DifficultyNames {
		if name == difficulty {
			m.diffIdx = i
		}
	}
	return m
}

func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg{ev: <-events}
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case eventMsg:
		m.handleEvent(msg.ev)
		return m, waitForEvent(m.events)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventTrialStarted:
		m.spec = ev.Spec
		m.haveSpec = true
		m.windowOpen = false
		m.claimed = map[string]bool{}
		if m.ctrl.Task().Variant == task.VariantTower && len(ev.Spec.Stimuli) > 0 {
			m.tower = newTowerState(ev.Spec.Stimuli[0].Value)
		}
	case session.EventTrialActive:
		m.windowOpen = true
	case session.EventTrialDone:
		m.windowOpen = false
		m.feedback = feedbackFor(ev.Outcomes)
		for _, out := range ev.Outcomes {
			if out.Scorable && out.Kind.Favorable() {
				m.tally++
			}
		}
	case session.EventFinished:
		m.tower = nil
		m.haveSpec = false
		if ev.Result != nil {
			m.saveResult(*ev.Result)
		}
	case session.EventRewardConfirmed:
		m.submitStatus = fmt.Sprintf("server confirmed %d sparks", ev.Reward)
	case session.EventSubmitFailed:
		m.submitStatus = "submission failed; showing local reward"
		logErrf("score submission failed: %v\n", ev.Err)
	}
}

func (m *Model) saveResult(res model.SessionResult) {
	if m.st == nil || m.saved {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := m.st.InsertSession(ctx, time.Now(), res, false); err != nil {
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.saved = true
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.ctrl.Abort()
		return m, tea.Quit
	}
	switch m.ctrl.Phase() {
	case model.PhaseMenu:
		return m.handleMenuKey(msg)
	case model.PhaseRunning:
		return m.handleRunningKey(msg)
	case model.PhaseResults:
		return m.handleResultsKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.taskIdx > 0 {
			m.taskIdx--
		}
	case "down", "j":
		if m.taskIdx < len(m.tasks)-1 {
			m.taskIdx++
		}
	case "left", "h":
		if m.diffIdx > 0 {
			m.diffIdx--
		}
	case "right", "l":
		if m.diffIdx < len(task.DifficultyNames)-1 {
			m.diffIdx++
		}
	case "enter":
		m.menuErr = ""
		m.tally = 0
		m.feedback = ""
		m.saved = false
		m.submitStatus = ""
		if err := m.ctrl.Start(m.tasks[m.taskIdx].Name, task.DifficultyNames[m.diffIdx]); err != nil {
			m.menuErr = err.Error()
		}
	}
	return m, nil
}

func (m *Model) handleRunningKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.ctrl.Abort()
		m.haveSpec = false
		m.tower = nil
		return m, nil
	}
	t := m.ctrl.Task()
	switch t.Variant {
	case task.VariantNBack, task.VariantGoNoGo:
		m.handleSignalKey(t, msg)
	case task.VariantStroop:
		m.handleStroopKey(msg)
	case task.VariantSwitch:
		m.handleSwitchKey(msg)
	case task.VariantTower:
		m.handleTowerKey(msg)
	}
	return m, nil
}

func (m *Model) handleSignalKey(t task.Task, msg tea.KeyMsg) {
	key := msg.String()
	if len(t.Modalities) == 1 {
		if key == " " {
			if m.ctrl.Claim(t.Modalities[0].Name) {
				m.claimed[t.Modalities[0].Name] = true
			}
		}
		return
	}
	// Dual channel bindings: a = position, l = letter.
	var modality string
	switch key {
	case "a":
		modality = "position"
	case "l":
		modality = "letter"
	default:
		return
	}
	if m.ctrl.Claim(modality) {
		m.claimed[modality] = true
	}
}

var stroopKeys = map[string]string{
	"r": "red",
	"g": "green",
	"b": "blue",
	"y": "yellow",
}

func (m *Model) handleStroopKey(msg tea.KeyMsg) {
	choice, ok := stroopKeys[msg.String()]
	if !ok {
		return
	}
	m.ctrl.Respond(model.ResponseRecord{Choice: choice})
}

func (m *Model) handleSwitchKey(msg tea.KeyMsg) {
	if !m.haveSpec || len(m.spec.Choices) != 2 {
		return
	}
	switch msg.String() {
	case "f":
		m.ctrl.Respond(model.ResponseRecord{Choice: m.spec.Choices[0]})
	case "j":
		m.ctrl.Respond(model.ResponseRecord{Choice: m.spec.Choices[1]})
	}
}

func (m *Model) handleTowerKey(msg tea.KeyMsg) {
	if m.tower == nil {
		return
	}
	switch msg.String() {
	case "1", "2", "3":
		peg := int(msg.String()[0] - '1')
		m.tower.pick(peg)
		if m.tower.solved() {
			moves := m.tower.moves
			m.ctrl.Respond(model.ResponseRecord{Choice: task.TowerSolved, Moves: moves})
		}
	case "backspace":
		m.tower.clearSelection()
	}
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.tally = 0
		m.feedback = ""
		m.saved = false
		m.submitStatus = ""
		if err := m.ctrl.Restart(); err != nil {
			m.menuErr = err.Error()
		}
	case "m":
		m.ctrl.ExitToMenu()
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.ctrl.Phase() {
	case model.PhaseMenu:
		content = m.viewMenu()
	case model.PhaseRunning:
		content = m.viewRunning()
	case model.PhaseResults:
		content = m.viewResults()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("mindforge") + "\n\n")
	for i, t := range m.tasks {
		line := fmt.Sprintf("%s — %s", t.Title, t.Blurb)
		if i == m.taskIdx {
			line = selectedStyle.Render("> " + line)
		} else {
			line = dimStyle.Render("  " + line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	diffs := make([]string, 0, len(task.DifficultyNames))
	for i, name := range task.DifficultyNames {
		if i == m.diffIdx {
			diffs = append(diffs, selectedStyle.Render("["+name+"]"))
		} else {
			diffs = append(diffs, dimStyle.Render(name))
		}
	}
	b.WriteString("Difficulty: " + strings.Join(diffs, " ") + "\n")
	if m.menuErr != "" {
		b.WriteString("\n" + badStyle.Render(m.menuErr) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("↑/↓ task · ←/→ difficulty · enter start · q quit"))
	return b.String()
}

func (m *Model) viewRunning() string {
	t := m.ctrl.Task()
	idx, total := m.ctrl.Progress()
	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title) + "\n\n")
	if m.haveSpec {
		b.WriteString(m.renderStimulus(t, m.spec) + "\n\n")
	}
	if m.windowOpen {
		prompt := "respond now"
		if len(m.claimed) > 0 {
			names := make([]string, 0, len(m.claimed))
			for _, mod := range t.Modalities {
				if m.claimed[mod.Name] {
					names = append(names, mod.Name)
				}
			}
			prompt = "claimed: " + strings.Join(names, ", ")
		}
		b.WriteString(selectedStyle.Render(prompt) + "\n")
	} else if m.feedback != "" {
		b.WriteString(m.feedback + "\n")
	} else {
		b.WriteString("\n")
	}
	progress := fmt.Sprintf("Trial %d/%d · Correct %d", min(idx+1, total), total, m.tally)
	b.WriteString("\n" + footerStyle.Render(progress) + "\n")
	b.WriteString(footerStyle.Render(keyHelp(t)))
	return b.String()
}

func (m *Model) viewResults() string {
	res, ok := m.ctrl.Result()
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Session Complete") + "\n\n")
	b.WriteString(fmt.Sprintf("Task: %s (%s)\n", res.Task, res.Difficulty))
	b.WriteString(fmt.Sprintf("Accuracy: %.1f%% over %d scorable trials\n", res.Accuracy, res.Scorable))
	if res.MeanReactionMs > 0 {
		b.WriteString(fmt.Sprintf("Mean RT: %.0f ms\n", res.MeanReactionMs))
	}
	if res.HasCost {
		b.WriteString(fmt.Sprintf("Condition cost: %+.0f ms\n", res.CostMs))
	}
	if res.HasEfficiency {
		b.WriteString(fmt.Sprintf("Efficiency: %.0f%%\n", res.Efficiency))
	}
	if res.BestStreak > 1 {
		b.WriteString(fmt.Sprintf("Best streak: %d\n", res.BestStreak))
	}
	b.WriteString(fmt.Sprintf("Score: %d\n", res.Score))

	reward := res.Reward
	if confirmed, ok := m.ctrl.AuthoritativeReward(); ok {
		reward = confirmed
	}
	b.WriteString(goodStyle.Render(fmt.Sprintf("Sparks earned: %d", reward)) + "\n")
	if m.submitStatus != "" {
		b.WriteString(dimStyle.Render(m.submitStatus) + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("r play again · m menu · q quit"))
	return b.String()
}

func feedbackFor(outcomes []model.ClassifiedOutcome) string {
	good := 0
	for _, out := range outcomes {
		if out.Kind.Favorable() {
			good++
		}
	}
	switch {
	case good == len(outcomes):
		return goodStyle.Render("✓")
	case good == 0:
		return badStyle.Render("✗")
	default:
		return badStyle.Render("partial")
	}
}

func keyHelp(t task.Task) string {
	switch t.Variant {
	case task.VariantNBack:
		if len(t.Modalities) > 1 {
			return "a position match · l letter match · esc quit"
		}
		return "space on match · esc quit"
	case task.VariantGoNoGo:
		return "space on target · esc quit"
	case task.VariantStroop:
		return "r/g/b/y ink color · esc quit"
	case task.VariantSwitch:
		return "f first answer · j second answer · esc quit"
	case task.VariantTower:
		return "1/2/3 pick and place · backspace deselect · esc quit"
	default:
		return "esc quit"
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
