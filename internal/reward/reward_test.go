package reward

import (
	"testing"

	"github.com/dkarlsv/mindforge/internal/model"
)

func TestComputeBaseAndDifficulty(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	res := model.SessionResult{Score: 100, Accuracy: 50}
	cases := []struct {
		multiplier float64
		want       int
	}{
		{1.0, 10},
		{1.5, 15},
		{2.0, 20},
		{3.0, 30},
	}
	for _, tc := range cases {
		got := calc.Compute(res, tc.multiplier)
		if got != tc.want {
			t.Fatalf("multiplier %.1f: got %d, want %d", tc.multiplier, got, tc.want)
		}
	}
}

func TestComputeAccuracyTiers(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	cases := []struct {
		accuracy float64
		want     int
	}{
		{95, 15}, // 10 * 1.5
		{90, 15}, // breakpoint is inclusive
		{80, 12}, // 10 * 1.2
		{75, 12},
		{74.9, 10},
		{0, 10},
	}
	for _, tc := range cases {
		res := model.SessionResult{Score: 100, Accuracy: tc.accuracy}
		got := calc.Compute(res, 1.0)
		if got != tc.want {
			t.Fatalf("accuracy %.1f: got %d, want %d", tc.accuracy, got, tc.want)
		}
	}
}

func TestComputeFlexibilityBonus(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	quick := model.SessionResult{Score: 100, Accuracy: 50, HasCost: true, CostMs: 120}
	slow := model.SessionResult{Score: 100, Accuracy: 50, HasCost: true, CostMs: 200}
	plain := model.SessionResult{Score: 100, Accuracy: 50}
	if got := calc.Compute(quick, 1.0); got != 11 {
		t.Fatalf("low cost: got %d, want 11", got)
	}
	if got := calc.Compute(slow, 1.0); got != 10 {
		t.Fatalf("high cost: got %d, want 10", got)
	}
	if got := calc.Compute(plain, 1.0); got != 10 {
		t.Fatalf("no cost measured: got %d, want 10", got)
	}
}

func TestComputeEfficiencyBonus(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	perfect := model.SessionResult{Score: 100, Accuracy: 50, HasEfficiency: true, Efficiency: 100}
	imperfect := model.SessionResult{Score: 100, Accuracy: 50, HasEfficiency: true, Efficiency: 85}
	if got := calc.Compute(perfect, 1.0); got != 13 { // round(10 * 1.25)
		t.Fatalf("perfect efficiency: got %d, want 13", got)
	}
	if got := calc.Compute(imperfect, 1.0); got != 10 {
		t.Fatalf("imperfect efficiency: got %d, want 10", got)
	}
}

func TestComputeZeroScoreYieldsZero(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	res := model.SessionResult{Score: 0, Accuracy: 0}
	if got := calc.Compute(res, 3.0); got != 0 {
		t.Fatalf("zero score: got %d, want 0", got)
	}
}

func TestComputeMonotonicInScore(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	prev := -1
	for score := 0; score <= 500; score += 10 {
		res := model.SessionResult{Score: score, Accuracy: 95}
		got := calc.Compute(res, 2.0)
		if got < prev {
			t.Fatalf("reward dropped from %d to %d at score %d", prev, got, score)
		}
		if got < 0 {
			t.Fatalf("negative reward %d at score %d", got, score)
		}
		prev = got
	}
}

func TestRulesAreNamed(t *testing.T) {
	rules := Rules(DefaultConfig())
	want := []string{"accuracy-tier", "flexibility", "efficiency"}
	if len(rules) != len(want) {
		t.Fatalf("%d rules, want %d", len(rules), len(want))
	}
	for i, r := range rules {
		if r.Name() != want[i] {
			t.Fatalf("rule %d named %q, want %q", i, r.Name(), want[i])
		}
	}
}

type doubleRule struct{}

func (doubleRule) Name() string                           { return "double" }
func (doubleRule) Multiplier(model.SessionResult) float64 { return 2 }

func TestCalculatorWithCustomRules(t *testing.T) {
	calc := NewCalculatorWithRules([]Rule{doubleRule{}})
	res := model.SessionResult{Score: 100}
	if got := calc.Compute(res, 1.0); got != 20 {
		t.Fatalf("custom rule: got %d, want 20", got)
	}
}
