// Package session orchestrates the per-trial loop of one training session.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkarlsv/mindforge/internal/classify"
	"github.com/dkarlsv/mindforge/internal/metrics"
	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/reward"
	"github.com/dkarlsv/mindforge/internal/sequence"
	"github.com/dkarlsv/mindforge/internal/task"
	"github.com/dkarlsv/mindforge/internal/trial"
)

// EventKind identifies a controller notification.
type EventKind int

// Controller events, delivered through the notify callback.
const (
	EventTrialStarted EventKind = iota
	EventTrialActive
	EventTrialDone
	EventFinished
	EventRewardConfirmed
	EventSubmitFailed
)

// Event is a controller notification with immutable payload snapshots.
type Event struct {
	Kind     EventKind
	Spec     model.TrialSpec
	Record   model.ResponseRecord
	Outcomes []model.ClassifiedOutcome
	Result   *model.SessionResult
	Reward   int
	Err      error
}

// Submitter posts a completed session to the score service and returns the
// authoritative reward.
type Submitter interface {
	Submit(ctx context.Context, res model.SessionResult) (int, error)
}

const submitTimeout = 5 * time.Second

// Controller is the session state machine (menu, running, results). It owns
// the session state exclusively; collaborators exchange immutable snapshots.
type Controller struct {
	mu        sync.Mutex
	sched     trial.Scheduler
	gen       *sequence.Generator
	calc      *reward.Calculator
	submitter Submitter
	notify    func(Event)

	phase     model.Phase
	task      task.Task
	profile   model.DifficultyProfile
	seq       []model.TrialSpec
	idx       int
	clock     *trial.Clock
	agg       *metrics.Aggregator
	responses []model.ResponseRecord
	startedAt time.Time
	cancelGap trial.CancelFunc

	// epoch increments on every session start or abort; timer callbacks
	// carry the epoch they were scheduled in, so a late fire from a dead
	// session cannot touch a newer one.
	epoch int

	result        *model.SessionResult
	authoritative *int
}

// New builds a controller. notify may be nil; it is invoked with the
// controller lock held and must not call back into the controller.
// submitter may be nil to skip score submission entirely.
func New(gen *sequence.Generator, calc *reward.Calculator, sched trial.Scheduler, submitter Submitter, notify func(Event)) *Controller {
	if notify == nil {
		notify = func(Event) {}
	}
	c := &Controller{
		sched:     sched,
		gen:       gen,
		calc:      calc,
		submitter: submitter,
		notify:    notify,
		phase:     model.PhaseMenu,
	}
	return c
}

func (c *Controller) lock() { c.mu.Lock() }

func (c *Controller) unlock() { c.mu.Unlock() }

// Phase returns the current state machine phase.
func (c *Controller) Phase() model.Phase {
	c.lock()
	defer c.unlock()
	return c.phase
}

// Task returns the active task descriptor.
func (c *Controller) Task() task.Task {
	c.lock()
	defer c.unlock()
	return c.task
}

// Profile returns the frozen difficulty profile.
func (c *Controller) Profile() model.DifficultyProfile {
	c.lock()
	defer c.unlock()
	return c.profile
}

// CurrentTrial returns the active trial spec while running.
func (c *Controller) CurrentTrial() (model.TrialSpec, bool) {
	c.lock()
	defer c.unlock()
	if c.phase != model.PhaseRunning || c.idx >= len(c.seq) {
		return model.TrialSpec{}, false
	}
	return c.seq[c.idx], true
}

// Progress returns the index of the active trial and the total count.
func (c *Controller) Progress() (int, int) {
	c.lock()
	defer c.unlock()
	return c.idx, len(c.seq)
}

// Result returns a copy of the final session result once in results phase.
func (c *Controller) Result() (model.SessionResult, bool) {
	c.lock()
	defer c.unlock()
	if c.result == nil {
		return model.SessionResult{}, false
	}
	return *c.result, true
}

// AuthoritativeReward returns the service-confirmed reward, when received.
func (c *Controller) AuthoritativeReward() (int, bool) {
	c.lock()
	defer c.unlock()
	if c.authoritative == nil {
		return 0, false
	}
	return *c.authoritative, true
}

// Start validates the chosen task and difficulty, freezes the profile,
// generates the trial sequence, and enters the running phase. It is only
// legal from the menu.
func (c *Controller) Start(taskName, difficulty string) error {
	c.lock()
	if c.phase != model.PhaseMenu {
		c.unlock()
		return fmt.Errorf("cannot start a session from %s", c.phase)
	}
	t, ok := task.Lookup(taskName)
	if !ok {
		c.unlock()
		return fmt.Errorf("unknown task %q", taskName)
	}
	profile, err := task.Profile(taskName, difficulty)
	if err != nil {
		c.unlock()
		return err
	}
	err = c.beginLocked(t, profile)
	c.unlock()
	return err
}

// beginLocked generates a fresh sequence and launches the first trial.
func (c *Controller) beginLocked(t task.Task, profile model.DifficultyProfile) error {
	seq, err := c.gen.Generate(t, profile)
	if err != nil {
		return err
	}
	c.epoch++
	c.task = t
	c.profile = profile
	c.seq = seq
	c.idx = 0
	c.agg = metrics.New()
	c.responses = nil
	c.result = nil
	c.authoritative = nil
	c.startedAt = time.Now()
	c.phase = model.PhaseRunning
	c.startTrialLocked()
	return nil
}

func (c *Controller) startTrialLocked() {
	spec := c.seq[c.idx]
	epoch := c.epoch
	c.clock = trial.NewClock(c.sched,
		func(s model.TrialSpec) {
			c.notify(Event{Kind: EventTrialActive, Spec: s})
		},
		func(s model.TrialSpec, rec model.ResponseRecord) {
			c.onTrialDone(epoch, s, rec)
		})
	claimTarget := 0
	if c.task.Kind == task.KindSignal {
		claimTarget = len(c.task.Modalities)
	}
	c.notify(Event{Kind: EventTrialStarted, Spec: spec})
	c.clock.Start(spec, c.profile.StimulusDur, c.profile.TrialBudget, claimTarget)
}

// Respond forwards the player's answer to the active trial clock. Outside
// the running phase, or outside the response window, it is a no-op.
func (c *Controller) Respond(rec model.ResponseRecord) bool {
	c.lock()
	if c.phase != model.PhaseRunning || c.clock == nil {
		c.unlock()
		return false
	}
	clock := c.clock
	c.unlock()
	return clock.Respond(rec)
}

// Claim records a per-modality match judgment on the active trial. Outside
// the running phase, or outside the response window, it is a no-op.
func (c *Controller) Claim(modality string) bool {
	c.lock()
	if c.phase != model.PhaseRunning || c.clock == nil {
		c.unlock()
		return false
	}
	clock := c.clock
	c.unlock()
	return clock.Claim(modality)
}

// onTrialDone folds one terminal trial outcome into the session and either
// schedules the next trial or finishes the sequence.
func (c *Controller) onTrialDone(epoch int, spec model.TrialSpec, rec model.ResponseRecord) {
	c.lock()
	if c.phase != model.PhaseRunning || epoch != c.epoch {
		c.unlock()
		return
	}
	c.responses = append(c.responses, rec)
	recCopy := rec
	outcomes := classify.Trial(c.task, spec, &recCopy)
	c.agg.Add(outcomes...)
	c.idx++

	c.notify(Event{Kind: EventTrialDone, Spec: spec, Record: rec, Outcomes: outcomes})

	if c.idx >= len(c.seq) {
		c.finishLocked()
		c.unlock()
		return
	}
	c.cancelGap = c.sched.After(c.profile.TrialGap, func() {
		c.advance(epoch)
	})
	c.unlock()
}

func (c *Controller) advance(epoch int) {
	c.lock()
	defer c.unlock()
	if c.phase != model.PhaseRunning || epoch != c.epoch {
		return
	}
	c.startTrialLocked()
}

func (c *Controller) finishLocked() {
	res := c.agg.Result()
	res.Task = c.task.Name
	res.Difficulty = c.profile.Name
	res.Elapsed = time.Since(c.startedAt)
	res.Reward = c.calc.Compute(res, c.profile.Multiplier)
	c.result = &res
	c.clock = nil
	c.phase = model.PhaseResults

	snapshot := res
	c.notify(Event{Kind: EventFinished, Result: &snapshot})

	if c.submitter != nil {
		go c.submit(c.epoch, snapshot)
	}
}

// submit posts the result best-effort. A failure never blocks the results
// phase; only the authoritative-reward refresh is skipped.
func (c *Controller) submit(epoch int, res model.SessionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	confirmed, err := c.submitter.Submit(ctx, res)
	c.lock()
	stale := epoch != c.epoch || c.phase != model.PhaseResults
	if !stale && err == nil {
		c.authoritative = &confirmed
	}
	c.unlock()
	if stale {
		return
	}
	if err != nil {
		c.notify(Event{Kind: EventSubmitFailed, Err: err})
		return
	}
	c.notify(Event{Kind: EventRewardConfirmed, Reward: confirmed})
}

// Restart discards the finished session and re-enters the running phase
// with a freshly generated sequence. It is only legal from results.
func (c *Controller) Restart() error {
	c.lock()
	if c.phase != model.PhaseResults {
		c.unlock()
		return fmt.Errorf("cannot restart from %s", c.phase)
	}
	err := c.beginLocked(c.task, c.profile)
	c.unlock()
	return err
}

// Abort cancels the running session, stopping any pending trial timer, and
// returns to the menu. Outside the running phase it is a no-op.
func (c *Controller) Abort() {
	c.lock()
	defer c.unlock()
	if c.phase != model.PhaseRunning {
		return
	}
	c.epoch++
	if c.clock != nil {
		c.clock.Cancel()
		c.clock = nil
	}
	if c.cancelGap != nil {
		c.cancelGap()
		c.cancelGap = nil
	}
	c.phase = model.PhaseMenu
}

// ExitToMenu leaves the results phase, discarding the session state.
func (c *Controller) ExitToMenu() {
	c.lock()
	defer c.unlock()
	if c.phase != model.PhaseResults {
		return
	}
	c.epoch++
	c.result = nil
	c.authoritative = nil
	c.phase = model.PhaseMenu
}
