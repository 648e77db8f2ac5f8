// Package task defines the exercise descriptors driving the generic engine.
package task

import (
	"fmt"
	"sort"
	"time"

	"github.com/dkarlsv/mindforge/internal/model"
)

// Kind selects the response-classification family of a task.
type Kind int

// Classification families.
const (
	// KindSignal scores binary match judgments as hit, miss, false-alarm,
	// or correct-rejection.
	KindSignal Kind = iota
	// KindChoice scores labeled answers as correct, incorrect, or timeout.
	KindChoice
)

// Variant selects the sequence-generation strategy of a task.
type Variant int

// Generation strategies.
const (
	VariantNBack Variant = iota
	VariantGoNoGo
	VariantStroop
	VariantSwitch
	VariantTower
)

// Modality is one stimulus channel with its value domain size.
type Modality struct {
	Name   string
	Domain int
}

// Task describes one exercise as parameters for the shared trial engine.
type Task struct {
	Name       string
	Title      string
	Blurb      string
	Kind       Kind
	Variant    Variant
	Modalities []Modality
}

// Stroop ink colors, in domain order.
var ColorLabels = []string{"red", "green", "blue", "yellow"}

// Rule-switch answer labels per rule, in domain order of the digit stimulus.
const (
	RuleParity    = "parity"
	RuleMagnitude = "magnitude"
)

// Digits used by the rule-switch task. 5 is excluded so the magnitude rule
// always has a definite answer.
var SwitchDigits = []int{1, 2, 3, 4, 6, 7, 8, 9}

// TowerSolved is the answer label reported when a tower puzzle is completed.
const TowerSolved = "solved"

var registry = []Task{
	{
		Name:    "letters",
		Title:   "Letter N-Back",
		Blurb:   "Flag letters repeating from N steps back.",
		Kind:    KindSignal,
		Variant: VariantNBack,
		Modalities: []Modality{
			{Name: "letter", Domain: 8},
		},
	},
	{
		Name:    "dual",
		Title:   "Dual N-Back",
		Blurb:   "Track position and letter channels at once.",
		Kind:    KindSignal,
		Variant: VariantNBack,
		Modalities: []Modality{
			{Name: "position", Domain: 9},
			{Name: "letter", Domain: 8},
		},
	},
	{
		Name:    "gonogo",
		Title:   "Go / No-Go",
		Blurb:   "Respond to the target letter, hold back otherwise.",
		Kind:    KindSignal,
		Variant: VariantGoNoGo,
		Modalities: []Modality{
			{Name: "letter", Domain: 6},
		},
	},
	{
		Name:    "stroop",
		Title:   "Color Clash",
		Blurb:   "Name the ink color, not the written word.",
		Kind:    KindChoice,
		Variant: VariantStroop,
		Modalities: []Modality{
			{Name: "word", Domain: 4},
			{Name: "ink", Domain: 4},
		},
	},
	{
		Name:    "switch",
		Title:   "Rule Switch",
		Blurb:   "Judge digits by parity or magnitude as the rule flips.",
		Kind:    KindChoice,
		Variant: VariantSwitch,
		Modalities: []Modality{
			{Name: "digit", Domain: 8},
		},
	},
	{
		Name:    "tower",
		Title:   "Disk Tower",
		Blurb:   "Rebuild the tower in as few moves as possible.",
		Kind:    KindChoice,
		Variant: VariantTower,
		Modalities: []Modality{
			{Name: "puzzle", Domain: 3},
		},
	},
	{
		Name:    "patterns",
		Title:   "Pattern Recall",
		Blurb:   "Flag grids repeating the previous pattern.",
		Kind:    KindSignal,
		Variant: VariantNBack,
		Modalities: []Modality{
			{Name: "pattern", Domain: 16},
		},
	},
}

// All returns every registered task in stable order.
func All() []Task {
	out := make([]Task, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a task descriptor by name.
func Lookup(name string) (Task, bool) {
	for _, t := range registry {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// Names returns the registered task names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, t := range registry {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Domain returns the effective domain size for a modality, honoring the
// profile override when set.
func (t Task) Domain(m Modality, profile model.DifficultyProfile) int {
	if profile.DomainSize > 0 && len(t.Modalities) == 1 {
		return profile.DomainSize
	}
	return m.Domain
}

// DifficultyNames lists profile names from easiest to hardest.
var DifficultyNames = []string{"easy", "medium", "hard", "expert"}

var difficultyMultipliers = map[string]float64{
	"easy":   1.0,
	"medium": 1.5,
	"hard":   2.0,
	"expert": 3.0,
}

// Profile builds the difficulty profile for a task, or an error when the
// task or difficulty name is unknown.
func Profile(taskName, difficulty string) (model.DifficultyProfile, error) {
	t, ok := Lookup(taskName)
	if !ok {
		return model.DifficultyProfile{}, fmt.Errorf("unknown task %q", taskName)
	}
	mult, ok := difficultyMultipliers[difficulty]
	if !ok {
		return model.DifficultyProfile{}, fmt.Errorf("unknown difficulty %q (available: easy, medium, hard, expert)", difficulty)
	}
	tier := 0
	for i, name := range DifficultyNames {
		if name == difficulty {
			tier = i
		}
	}
	p := baseProfile(t, tier)
	p.Task = t.Name
	p.Name = difficulty
	p.Multiplier = mult
	return p, nil
}

func baseProfile(t Task, tier int) model.DifficultyProfile {
	switch t.Variant {
	case VariantNBack:
		p := model.DifficultyProfile{
			Trials:        20 + 5*tier,
			StimulusDur:   500 * time.Millisecond,
			TrialBudget:   2500 * time.Millisecond,
			TrialGap:      700 * time.Millisecond,
			TargetRate:    0.3,
			Lookback:      1 + tier,
			MinSeparation: 1,
		}
		if t.Name == "patterns" {
			// Pattern recall stays a 1-back; difficulty grows the grid.
			p.Lookback = 1
			p.GridSize = 3 + tier/2
		}
		if t.Name == "dual" && p.Lookback > 3 {
			p.Lookback = 3
		}
		return p
	case VariantGoNoGo:
		return model.DifficultyProfile{
			Trials:      30 + 10*tier,
			StimulusDur: 300 * time.Millisecond,
			TrialBudget: time.Duration(1500-200*tier) * time.Millisecond,
			TrialGap:    500 * time.Millisecond,
			TargetRate:  0.7,
		}
	case VariantStroop:
		return model.DifficultyProfile{
			Trials:      20 + 8*tier,
			StimulusDur: 200 * time.Millisecond,
			TrialBudget: time.Duration(2200-250*tier) * time.Millisecond,
			TrialGap:    600 * time.Millisecond,
			TargetRate:  0.5,
		}
	case VariantSwitch:
		return model.DifficultyProfile{
			Trials:      24 + 8*tier,
			StimulusDur: 200 * time.Millisecond,
			TrialBudget: time.Duration(2800-300*tier) * time.Millisecond,
			TrialGap:    600 * time.Millisecond,
			TargetRate:  0.25 + 0.08*float64(tier),
		}
	case VariantTower:
		return model.DifficultyProfile{
			Trials:      3,
			StimulusDur: time.Second,
			TrialBudget: time.Duration(60+30*tier) * time.Second,
			TrialGap:    1500 * time.Millisecond,
			Disks:       3 + tier,
		}
	default:
		return model.DifficultyProfile{}
	}
}
