// Package classify turns recorded responses into trial verdicts.
package classify

import (
	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/task"
)

// Trial compares a response (or its absence) against the ground truth of one
// trial and yields one outcome per judged modality. rec is nil when the
// session never recorded anything for the trial; a record with TimedOut set
// is treated the same as an absent response.
func Trial(t task.Task, spec model.TrialSpec, rec *model.ResponseRecord) []model.ClassifiedOutcome {
	responded := rec != nil && !rec.TimedOut
	base := model.ClassifiedOutcome{
		TrialIndex: spec.Index,
		Flagged:    spec.Flagged,
		Scorable:   spec.Scorable,
		Optimal:    spec.Optimal,
	}
	if responded {
		base.Reaction = rec.Elapsed
		base.HasRT = true
		base.Moves = rec.Moves
	}

	if t.Kind == task.KindChoice {
		out := base
		switch {
		case !responded:
			out.Kind = model.OutcomeTimeout
		case rec.Choice == spec.Expected:
			out.Kind = model.OutcomeCorrect
		default:
			out.Kind = model.OutcomeIncorrect
		}
		return []model.ClassifiedOutcome{out}
	}

	outcomes := make([]model.ClassifiedOutcome, 0, len(t.Modalities))
	for _, m := range t.Modalities {
		truth, ok := spec.Truth(m.Name)
		if !ok {
			continue
		}
		out := base
		out.Modality = m.Name
		claimed := responded && rec.Claims[m.Name]
		switch {
		case truth && claimed:
			out.Kind = model.OutcomeHit
		case truth && !claimed:
			out.Kind = model.OutcomeMiss
		case !truth && claimed:
			out.Kind = model.OutcomeFalseAlarm
		default:
			out.Kind = model.OutcomeCorrectRejection
		}
		// Reaction time is only meaningful when a judgment was actively
		// submitted for this modality.
		if !claimed {
			out.HasRT = false
			out.Reaction = 0
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}
