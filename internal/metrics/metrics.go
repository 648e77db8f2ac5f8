// Package metrics aggregates trial outcomes into session statistics.
package metrics

import (
	"github.com/dkarlsv/mindforge/internal/model"
)

// Points granted per favorable scorable outcome.
const pointsPerCorrect = 10

// Aggregator accumulates classified outcomes for one session. The computed
// result is a pure function of the outcome stream: calling Result repeatedly
// over the same stream yields identical values.
type Aggregator struct {
	outcomes []model.ClassifiedOutcome
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Add appends outcomes to the stream.
func (a *Aggregator) Add(outs ...model.ClassifiedOutcome) {
	a.outcomes = append(a.outcomes, outs...)
}

// Result computes the session aggregate from the outcome stream.
func (a *Aggregator) Result() model.SessionResult {
	res := model.SessionResult{
		Counts: map[model.OutcomeKind]int{},
	}

	trialSeen := map[int]bool{}
	var (
		scorable, favorable int
		streak              int
		rtSum               float64
		rtCount             int
		flaggedSum          float64
		flaggedCount        int
		plainSum            float64
		plainCount          int
		anyFlagged          bool
		optimalSum          int
		movesSum            int
	)

	for _, out := range a.outcomes {
		trialSeen[out.TrialIndex] = true
		res.Counts[out.Kind]++

		if out.Flagged {
			anyFlagged = true
		}
		if out.HasRT {
			ms := float64(out.Reaction.Milliseconds())
			rtSum += ms
			rtCount++
			if out.Flagged {
				flaggedSum += ms
				flaggedCount++
			} else {
				plainSum += ms
				plainCount++
			}
		}
		if out.Optimal > 0 {
			res.HasEfficiency = true
			if out.Kind == model.OutcomeCorrect && out.Moves > 0 {
				optimalSum += out.Optimal
				movesSum += out.Moves
			} else {
				// Unsolved puzzles count their optimum as pure overhead.
				optimalSum += out.Optimal
				movesSum += 3 * out.Optimal
			}
		}

		if !out.Scorable {
			continue
		}
		scorable++
		if out.Kind.Favorable() {
			favorable++
			streak++
			if streak > res.BestStreak {
				res.BestStreak = streak
			}
		} else {
			streak = 0
		}
	}

	res.Trials = len(trialSeen)
	res.Scorable = scorable
	res.Score = favorable * pointsPerCorrect
	if scorable > 0 {
		res.Accuracy = float64(favorable) / float64(scorable) * 100
	}
	if rtCount > 0 {
		res.MeanReactionMs = rtSum / float64(rtCount)
	}
	if anyFlagged {
		res.HasCost = true
		if flaggedCount > 0 && plainCount > 0 {
			res.CostMs = flaggedSum/float64(flaggedCount) - plainSum/float64(plainCount)
		}
	}
	if res.HasEfficiency && movesSum > 0 {
		eff := float64(optimalSum) / float64(movesSum) * 100
		if eff > 100 {
			eff = 100
		}
		res.Efficiency = eff
	}
	return res
}
