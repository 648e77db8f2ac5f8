// Package sequence builds ground-truth trial sequences.
package sequence

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/task"
)

// ErrConfig marks an invalid or infeasible difficulty profile.
var ErrConfig = errors.New("invalid profile")

// Generator produces randomized trial sequences.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithRand returns a Generator using the provided random source.
func NewWithRand(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Generate builds the full ordered trial sequence for a session. The profile
// is validated first; an infeasible configuration is rejected rather than
// silently violating the uniqueness constraints.
func (g *Generator) Generate(t task.Task, p model.DifficultyProfile) ([]model.TrialSpec, error) {
	if err := validate(t, p); err != nil {
		return nil, err
	}
	switch t.Variant {
	case task.VariantNBack:
		return g.genNBack(t, p), nil
	case task.VariantGoNoGo:
		return g.genGoNoGo(t, p), nil
	case task.VariantStroop:
		return g.genStroop(p), nil
	case task.VariantSwitch:
		return g.genSwitch(p), nil
	case task.VariantTower:
		return genTower(p), nil
	default:
		return nil, fmt.Errorf("%w: unknown task variant %d", ErrConfig, t.Variant)
	}
}

func validate(t task.Task, p model.DifficultyProfile) error {
	if p.Trials < 1 {
		return fmt.Errorf("%w: trial count must be >= 1, got %d", ErrConfig, p.Trials)
	}
	if p.TargetRate < 0 || p.TargetRate > 1 {
		return fmt.Errorf("%w: target rate must be in [0,1], got %g", ErrConfig, p.TargetRate)
	}
	switch t.Variant {
	case task.VariantNBack, task.VariantGoNoGo:
		if t.Variant == task.VariantNBack && p.Lookback < 1 {
			return fmt.Errorf("%w: lookback must be >= 1, got %d", ErrConfig, p.Lookback)
		}
		for _, m := range t.Modalities {
			domain := t.Domain(m, p)
			// A non-match draw excludes the lookback value and, when the
			// profile separates consecutive stimuli, the previous value.
			// Both exclusions coincide at lookback 1.
			excluded := 1
			if p.MinSeparation > 0 && p.Lookback > 1 {
				excluded = 2
			}
			if domain <= excluded {
				return fmt.Errorf("%w: %s domain size %d cannot satisfy distinct-draw constraint (needs > %d)",
					ErrConfig, m.Name, domain, excluded)
			}
		}
	case task.VariantTower:
		if p.Disks < 1 {
			return fmt.Errorf("%w: disk count must be >= 1, got %d", ErrConfig, p.Disks)
		}
	}
	return nil
}

func (g *Generator) genNBack(t task.Task, p model.DifficultyProfile) []model.TrialSpec {
	trials := make([]model.TrialSpec, p.Trials)
	for i := range trials {
		spec := model.TrialSpec{
			Index:    i,
			Scorable: i >= p.Lookback,
			Stimuli:  make([]model.Stimulus, 0, len(t.Modalities)),
		}
		for mi, m := range t.Modalities {
			domain := t.Domain(m, p)
			stim := model.Stimulus{Modality: m.Name}
			if i < p.Lookback {
				// Lead-in: no comparison target exists yet.
				stim.Value = g.rnd.Intn(domain)
			} else {
				back := trials[i-p.Lookback].Stimuli[mi].Value
				if g.rnd.Float64() < p.TargetRate {
					stim.Value = back
					stim.IsMatch = true
				} else {
					excl := map[int]bool{back: true}
					if p.MinSeparation > 0 && i > 0 {
						excl[trials[i-1].Stimuli[mi].Value] = true
					}
					stim.Value = g.drawExcluding(domain, excl)
				}
			}
			spec.Stimuli = append(spec.Stimuli, stim)
		}
		trials[i] = spec
	}
	return trials
}

// genGoNoGo compares every stimulus against a fixed target (value 0)
// instead of a lookback position, so every trial is scorable.
func (g *Generator) genGoNoGo(t task.Task, p model.DifficultyProfile) []model.TrialSpec {
	m := t.Modalities[0]
	domain := t.Domain(m, p)
	trials := make([]model.TrialSpec, p.Trials)
	for i := range trials {
		stim := model.Stimulus{Modality: m.Name}
		if g.rnd.Float64() < p.TargetRate {
			stim.Value = 0
			stim.IsMatch = true
		} else {
			stim.Value = 1 + g.rnd.Intn(domain-1)
		}
		trials[i] = model.TrialSpec{
			Index:    i,
			Scorable: true,
			Stimuli:  []model.Stimulus{stim},
		}
	}
	return trials
}

func (g *Generator) genStroop(p model.DifficultyProfile) []model.TrialSpec {
	n := len(task.ColorLabels)
	trials := make([]model.TrialSpec, p.Trials)
	for i := range trials {
		word := g.rnd.Intn(n)
		ink := word
		congruent := g.rnd.Float64() < p.TargetRate
		if !congruent {
			ink = g.drawExcluding(n, map[int]bool{word: true})
		}
		trials[i] = model.TrialSpec{
			Index:    i,
			Scorable: true,
			Flagged:  !congruent,
			Expected: task.ColorLabels[ink],
			Choices:  append([]string(nil), task.ColorLabels...),
			Stimuli: []model.Stimulus{
				{Modality: "word", Value: word, IsMatch: congruent},
				{Modality: "ink", Value: ink, IsMatch: congruent},
			},
		}
	}
	return trials
}

func (g *Generator) genSwitch(p model.DifficultyProfile) []model.TrialSpec {
	trials := make([]model.TrialSpec, p.Trials)
	rule := g.rnd.Intn(2)
	for i := range trials {
		switched := false
		if i > 0 && g.rnd.Float64() < p.TargetRate {
			rule = 1 - rule
			switched = true
		}
		idx := g.rnd.Intn(len(task.SwitchDigits))
		digit := task.SwitchDigits[idx]
		var expected string
		var choices []string
		if rule == 0 {
			choices = []string{"odd", "even"}
			expected = "even"
			if digit%2 == 1 {
				expected = "odd"
			}
		} else {
			choices = []string{"low", "high"}
			expected = "high"
			if digit < 5 {
				expected = "low"
			}
		}
		trials[i] = model.TrialSpec{
			Index:    i,
			Scorable: true,
			Flagged:  switched,
			Expected: expected,
			Choices:  choices,
			Stimuli: []model.Stimulus{
				{Modality: "digit", Value: idx},
				{Modality: "rule", Value: rule},
			},
		}
	}
	return trials
}

func genTower(p model.DifficultyProfile) []model.TrialSpec {
	trials := make([]model.TrialSpec, p.Trials)
	for i := range trials {
		trials[i] = model.TrialSpec{
			Index:    i,
			Scorable: true,
			Expected: task.TowerSolved,
			Optimal:  (1 << p.Disks) - 1,
			Stimuli: []model.Stimulus{
				{Modality: "puzzle", Value: p.Disks},
			},
		}
	}
	return trials
}

// drawExcluding draws uniformly from [0, domain) skipping excluded values.
// Feasibility (domain > len(excl)) is guaranteed by validate.
func (g *Generator) drawExcluding(domain int, excl map[int]bool) int {
	allowed := domain
	for v := range excl {
		if v >= 0 && v < domain {
			allowed--
		}
	}
	pick := g.rnd.Intn(allowed)
	for v := 0; ; v++ {
		if excl[v] {
			continue
		}
		if pick == 0 {
			return v
		}
		pick--
	}
}
