// Package model defines shared data structures.
package model

import "time"

// Phase identifies the session state machine phase.
type Phase int

// Session phases.
const (
	PhaseMenu Phase = iota
	PhaseRunning
	PhaseResults
)

// String returns a short phase label.
func (p Phase) String() string {
	switch p {
	case PhaseMenu:
		return "menu"
	case PhaseRunning:
		return "running"
	case PhaseResults:
		return "results"
	default:
		return "unknown"
	}
}

// OutcomeKind classifies one trial judgment.
type OutcomeKind int

// Signal-detection outcomes (binary match judgments) followed by
// single-choice outcomes (labeled answers).
const (
	OutcomeHit OutcomeKind = iota
	OutcomeMiss
	OutcomeFalseAlarm
	OutcomeCorrectRejection
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeTimeout
)

// String returns a short outcome label.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeFalseAlarm:
		return "false-alarm"
	case OutcomeCorrectRejection:
		return "correct-rejection"
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Favorable reports whether the outcome counts toward accuracy.
func (k OutcomeKind) Favorable() bool {
	switch k {
	case OutcomeHit, OutcomeCorrectRejection, OutcomeCorrect:
		return true
	default:
		return false
	}
}

// DifficultyProfile is a named session configuration. It is frozen when a
// session starts and never mutated afterwards.
type DifficultyProfile struct {
	Task          string
	Name          string
	Trials        int
	StimulusDur   time.Duration
	TrialBudget   time.Duration
	TrialGap      time.Duration
	DomainSize    int
	TargetRate    float64
	Lookback      int
	MinSeparation int
	Disks         int
	GridSize      int
	Multiplier    float64
}

// Stimulus is one modality channel of a trial.
type Stimulus struct {
	Modality string
	Value    int
	IsMatch  bool
}

// TrialSpec is one position in a generated sequence.
type TrialSpec struct {
	Index    int
	Stimuli  []Stimulus
	Expected string
	Choices  []string
	Flagged  bool
	Scorable bool
	Optimal  int
}

// Truth returns the ground truth for a modality, if present.
func (t TrialSpec) Truth(modality string) (bool, bool) {
	for _, s := range t.Stimuli {
		if s.Modality == modality {
			return s.IsMatch, true
		}
	}
	return false, false
}

// ResponseRecord captures the player's answer for one trial. TimedOut marks
// the no-response sentinel; Claims holds per-modality match judgments for
// signal-detection tasks, Choice the picked label for single-choice tasks.
type ResponseRecord struct {
	TrialIndex int
	Claims     map[string]bool
	Choice     string
	Moves      int
	Elapsed    time.Duration
	TimedOut   bool
}

// ClassifiedOutcome is the verdict for one modality of one trial.
type ClassifiedOutcome struct {
	TrialIndex int
	Modality   string
	Kind       OutcomeKind
	Reaction   time.Duration
	HasRT      bool
	Flagged    bool
	Scorable   bool
	Optimal    int
	Moves      int
}

// SessionResult is the final aggregate of one completed session.
type SessionResult struct {
	Task           string
	Difficulty     string
	Trials         int
	Scorable       int
	Counts         map[OutcomeKind]int
	Accuracy       float64
	MeanReactionMs float64
	CostMs         float64
	HasCost        bool
	Efficiency     float64
	HasEfficiency  bool
	BestStreak     int
	Score          int
	Reward         int
	Elapsed        time.Duration
}

// StatsConfig defines filters for history output.
type StatsConfig struct {
	Task  string
	Since *time.Time
	Last  int
}

// SessionRow is one stored session for history reporting.
type SessionRow struct {
	ID         int64
	PlayedAt   time.Time
	Task       string
	Difficulty string
	Trials     int
	Scorable   int
	Correct    int
	Accuracy   float64
	MeanRTMs   float64
	CostMs     float64
	Efficiency float64
	Score      int
	Reward     int
	DurationMs int64
	Submitted  bool
}
