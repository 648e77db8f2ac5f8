package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/task"
)

const letterDomain = "BCDFGHJKMP"

var inkStyles = map[string]lipgloss.Style{
	"red":    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true),
	"green":  lipgloss.NewStyle().Foreground(lipgloss.Color("#7CC86A")).Bold(true),
	"blue":   lipgloss.NewStyle().Foreground(lipgloss.Color("#4DA6FF")).Bold(true),
	"yellow": lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true),
}

func (m *Model) renderStimulus(t task.Task, spec model.TrialSpec) string {
	switch t.Variant {
	case task.VariantNBack:
		if t.Name == "patterns" {
			return renderPattern(spec, m.ctrl.Profile().GridSize)
		}
		if len(t.Modalities) > 1 {
			return renderDual(spec)
		}
		return renderLetter(stimulusValue(spec, "letter"))
	case task.VariantGoNoGo:
		return renderGoNoGo(stimulusValue(spec, "letter"))
	case task.VariantStroop:
		return renderStroop(spec)
	case task.VariantSwitch:
		return renderSwitch(spec)
	case task.VariantTower:
		if m.tower != nil {
			return m.tower.render()
		}
		return ""
	default:
		return ""
	}
}

func stimulusValue(spec model.TrialSpec, modality string) int {
	for _, s := range spec.Stimuli {
		if s.Modality == modality {
			return s.Value
		}
	}
	return 0
}

func letterFor(value int) string {
	if value < 0 || value >= len(letterDomain) {
		return "?"
	}
	return string(letterDomain[value])
}

func renderLetter(value int) string {
	return stimulusStyle.Render(letterFor(value))
}

// renderGoNoGo shows X for the target stimulus, filler letters otherwise.
func renderGoNoGo(value int) string {
	if value == 0 {
		return selectedStyle.Render("X")
	}
	return stimulusStyle.Render(letterFor(value))
}

func renderDual(spec model.TrialSpec) string {
	grid := renderGrid(stimulusValue(spec, "position"), 3)
	letter := "Letter: " + stimulusStyle.Render(letterFor(stimulusValue(spec, "letter")))
	return grid + "\n\n" + letter
}

// renderGrid draws an n-by-n grid with one highlighted cell.
func renderGrid(cell, size int) string {
	var b strings.Builder
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if row*size+col == cell {
				b.WriteString(selectedStyle.Render("■"))
			} else {
				b.WriteString(dimStyle.Render("·"))
			}
			if col < size-1 {
				b.WriteString(" ")
			}
		}
		if row < size-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderPattern expands a pattern value into a deterministic lit-cell mask:
// the same value always lights the same cells, so repeated values look
// identical on screen.
func renderPattern(spec model.TrialSpec, size int) string {
	if size < 3 {
		size = 3
	}
	value := stimulusValue(spec, "pattern")
	cells := size * size
	mask := (value*73 + 21) % (1 << uint(min(cells, 16)))
	if mask == 0 {
		mask = 1
	}
	var b strings.Builder
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			bit := (row*size + col) % 16
			if mask&(1<<uint(bit)) != 0 {
				b.WriteString(selectedStyle.Render("■"))
			} else {
				b.WriteString(dimStyle.Render("·"))
			}
			if col < size-1 {
				b.WriteString(" ")
			}
		}
		if row < size-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderStroop(spec model.TrialSpec) string {
	word := task.ColorLabels[stimulusValue(spec, "word")]
	ink := task.ColorLabels[stimulusValue(spec, "ink")]
	style, ok := inkStyles[ink]
	if !ok {
		style = stimulusStyle
	}
	return style.Render(strings.ToUpper(word))
}

func renderSwitch(spec model.TrialSpec) string {
	rule := stimulusValue(spec, "rule")
	ruleLabel := "ODD or EVEN?"
	if rule == 1 {
		ruleLabel = "LOW or HIGH?"
	}
	digit := task.SwitchDigits[stimulusValue(spec, "digit")]
	hint := ""
	if len(spec.Choices) == 2 {
		hint = fmt.Sprintf("f=%s j=%s", spec.Choices[0], spec.Choices[1])
	}
	return dimStyle.Render(ruleLabel) + "\n\n" +
		stimulusStyle.Render(fmt.Sprintf("%d", digit)) + "\n\n" +
		footerStyle.Render(hint)
}

// towerState tracks the interactive planning puzzle within one trial.
type towerState struct {
	pegs     [3][]int
	disks    int
	selected int
	moves    int
}

func newTowerState(disks int) *towerState {
	ts := &towerState{disks: disks, selected: -1}
	for d := disks; d >= 1; d-- {
		ts.pegs[0] = append(ts.pegs[0], d)
	}
	return ts
}

// pick selects a source peg, or moves the selected disk onto a legal
// destination. Picking the selected peg again deselects it.
func (ts *towerState) pick(peg int) {
	if peg < 0 || peg > 2 {
		return
	}
	if ts.selected == -1 {
		if len(ts.pegs[peg]) > 0 {
			ts.selected = peg
		}
		return
	}
	if peg == ts.selected {
		ts.selected = -1
		return
	}
	src := ts.pegs[ts.selected]
	disk := src[len(src)-1]
	dst := ts.pegs[peg]
	if len(dst) > 0 && dst[len(dst)-1] < disk {
		// Illegal move: larger disk on smaller. Keep the selection.
		return
	}
	ts.pegs[ts.selected] = src[:len(src)-1]
	ts.pegs[peg] = append(dst, disk)
	ts.selected = -1
	ts.moves++
}

func (ts *towerState) clearSelection() {
	ts.selected = -1
}

func (ts *towerState) solved() bool {
	return len(ts.pegs[2]) == ts.disks
}

func (ts *towerState) render() string {
	width := ts.disks*2 + 1
	height := ts.disks
	var b strings.Builder
	for level := height - 1; level >= 0; level-- {
		cells := make([]string, 3)
		for p := 0; p < 3; p++ {
			cell := "|"
			if level < len(ts.pegs[p]) {
				disk := ts.pegs[p][level]
				cell = strings.Repeat("█", disk*2-1)
			}
			pad := width - runewidth.StringWidth(cell)
			left := pad / 2
			right := pad - left
			cells[p] = strings.Repeat(" ", left) + cell + strings.Repeat(" ", right)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	labels := make([]string, 3)
	for p := 0; p < 3; p++ {
		label := fmt.Sprintf("%d", p+1)
		if p == ts.selected {
			label = selectedStyle.Render(label)
		} else {
			label = dimStyle.Render(label)
		}
		pad := width - 1
		left := pad / 2
		labels[p] = strings.Repeat(" ", left) + label + strings.Repeat(" ", pad-left)
	}
	b.WriteString(strings.Join(labels, " "))
	b.WriteString("\n" + footerStyle.Render(fmt.Sprintf("moves: %d", ts.moves)))
	return b.String()
}
