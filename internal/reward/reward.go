// Package reward converts session metrics into earned sparks.
package reward

import (
	"math"

	"github.com/dkarlsv/mindforge/internal/model"
)

// Config holds the bonus breakpoints and multipliers. The exact numbers are
// tuning constants, not derived values, so they stay overridable from the
// config file.
type Config struct {
	HighAccuracyPct  float64
	HighAccuracyMult float64
	GoodAccuracyPct  float64
	GoodAccuracyMult float64
	FlexCostMs       float64
	FlexMult         float64
	PerfectEffMult   float64
}

// DefaultConfig returns the stock bonus tiers.
func DefaultConfig() Config {
	return Config{
		HighAccuracyPct:  90,
		HighAccuracyMult: 1.5,
		GoodAccuracyPct:  75,
		GoodAccuracyMult: 1.2,
		FlexCostMs:       150,
		FlexMult:         1.1,
		PerfectEffMult:   1.25,
	}
}

// Rule is a named bonus multiplier. A rule returns 1 when it does not apply.
type Rule interface {
	Name() string
	Multiplier(res model.SessionResult) float64
}

// Rules returns the stock bonus rules in evaluation order.
func Rules(cfg Config) []Rule {
	return []Rule{
		accuracyTierRule{cfg: cfg},
		flexibilityRule{cfg: cfg},
		efficiencyRule{cfg: cfg},
	}
}

// accuracyTierRule grants a multiplier above fixed accuracy breakpoints.
type accuracyTierRule struct {
	cfg Config
}

func (accuracyTierRule) Name() string { return "accuracy-tier" }

func (r accuracyTierRule) Multiplier(res model.SessionResult) float64 {
	switch {
	case res.Accuracy >= r.cfg.HighAccuracyPct:
		return r.cfg.HighAccuracyMult
	case res.Accuracy >= r.cfg.GoodAccuracyPct:
		return r.cfg.GoodAccuracyMult
	default:
		return 1
	}
}

// flexibilityRule rewards a small condition cost (switch or interference),
// provided the session produced one.
type flexibilityRule struct {
	cfg Config
}

func (flexibilityRule) Name() string { return "flexibility" }

func (r flexibilityRule) Multiplier(res model.SessionResult) float64 {
	if !res.HasCost {
		return 1
	}
	if res.CostMs < r.cfg.FlexCostMs {
		return r.cfg.FlexMult
	}
	return 1
}

// efficiencyRule rewards a perfect planning efficiency.
type efficiencyRule struct {
	cfg Config
}

func (efficiencyRule) Name() string { return "efficiency" }

func (r efficiencyRule) Multiplier(res model.SessionResult) float64 {
	if !res.HasEfficiency {
		return 1
	}
	if res.Efficiency >= 100 {
		return r.cfg.PerfectEffMult
	}
	return 1
}

// Calculator applies the bonus rules to a base reward.
type Calculator struct {
	rules []Rule
}

// NewCalculator builds a calculator from the given tuning config.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{rules: Rules(cfg)}
}

// NewCalculatorWithRules builds a calculator from an explicit rule list.
func NewCalculatorWithRules(rules []Rule) *Calculator {
	return &Calculator{rules: rules}
}

// Compute maps the session metrics and difficulty multiplier to a
// non-negative integer reward. The base grows with the raw score; the bonus
// rules multiply on top.
func (c *Calculator) Compute(res model.SessionResult, multiplier float64) int {
	base := float64(res.Score) / 10.0 * multiplier
	for _, r := range c.rules {
		base *= r.Multiplier(res)
	}
	reward := int(math.Round(base))
	if reward < 0 {
		return 0
	}
	return reward
}
