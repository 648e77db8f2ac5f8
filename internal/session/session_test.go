package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/dkarlsv/mindforge/internal/model"
	"github.com/dkarlsv/mindforge/internal/reward"
	"github.com/dkarlsv/mindforge/internal/sequence"
	"github.com/dkarlsv/mindforge/internal/trial"
)

// fakeScheduler queues deferred calls so tests drive time manually.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	fn        func()
	cancelled bool
}

func (s *fakeScheduler) After(_ time.Duration, fn func()) trial.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn}
	s.timers = append(s.timers, t)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		t.cancelled = true
	}
}

// fire runs the oldest pending timer and reports whether one ran.
func (s *fakeScheduler) fire() bool {
	s.mu.Lock()
	var next *fakeTimer
	for len(s.timers) > 0 {
		candidate := s.timers[0]
		s.timers = s.timers[1:]
		if !candidate.cancelled {
			next = candidate
			break
		}
	}
	s.mu.Unlock()
	if next == nil {
		return false
	}
	next.fn()
	return true
}

// eventLog collects controller notifications. The controller delivers most
// events under its own lock and submit results from a goroutine, so the log
// carries its own mutex.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(kind EventKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type fakeSubmitter struct {
	reward int
	err    error
}

func (f fakeSubmitter) Submit(context.Context, model.SessionResult) (int, error) {
	return f.reward, f.err
}

func newTestController(sched *fakeScheduler, submitter Submitter, log *eventLog) *Controller {
	gen := sequence.NewWithRand(rand.New(rand.NewSource(42)))
	calc := reward.NewCalculator(reward.DefaultConfig())
	return New(gen, calc, sched, submitter, log.record)
}

// runToResults drains the timer queue until the session leaves the running
// phase, letting every trial expire unanswered.
func runToResults(t *testing.T, c *Controller, sched *fakeScheduler) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if c.Phase() != model.PhaseRunning {
			return
		}
		if !sched.fire() {
			t.Fatalf("running phase with no pending timer")
		}
	}
	t.Fatalf("session did not finish")
}

func TestStartFromMenuOnly(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, nil, log)

	if err := c.Start("gonogo", "easy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.Phase() != model.PhaseRunning {
		t.Fatalf("phase %s after start, want running", c.Phase())
	}
	if err := c.Start("gonogo", "easy"); err == nil {
		t.Fatalf("second start while running should fail")
	}
}

func TestStartRejectsUnknownSelection(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, nil, log)

	if err := c.Start("juggling", "easy"); err == nil {
		t.Fatalf("unknown task accepted")
	}
	if err := c.Start("gonogo", "brutal"); err == nil {
		t.Fatalf("unknown difficulty accepted")
	}
	if c.Phase() != model.PhaseMenu {
		t.Fatalf("failed start left the menu phase")
	}
}

func TestFullSessionAllTimeouts(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, nil, log)

	if err := c.Start("gonogo", "easy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	profile := c.Profile()
	runToResults(t, c, sched)

	if c.Phase() != model.PhaseResults {
		t.Fatalf("phase %s, want results", c.Phase())
	}
	res, ok := c.Result()
	if !ok {
		t.Fatalf("no result in results phase")
	}
	if res.Trials != profile.Trials {
		t.Fatalf("%d trials in result, want %d", res.Trials, profile.Trials)
	}
	// Unanswered go trials are misses, unanswered no-go trials are correct
	// rejections, so the counts must cover every trial.
	total := res.Counts[model.OutcomeMiss] + res.Counts[model.OutcomeCorrectRejection]
	if total != profile.Trials {
		t.Fatalf("miss+rejection = %d, want %d", total, profile.Trials)
	}
	if got := log.count(EventTrialStarted); got != profile.Trials {
		t.Fatalf("%d trial-started events, want %d", got, profile.Trials)
	}
	if got := log.count(EventFinished); got != 1 {
		t.Fatalf("%d finished events, want 1", got)
	}
}

func TestClaimFeedsResult(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, nil, log)

	if err := c.Start("gonogo", "easy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Per trial: the arm timer opens the window, the claim resolves it, the
	// gap timer starts the next trial.
	for c.Phase() == model.PhaseRunning {
		spec, ok := c.CurrentTrial()
		if !ok {
			t.Fatalf("running phase without an active trial")
		}
		if !sched.fire() { // stimulus elapses
			t.Fatalf("no arm timer pending")
		}
		if spec.Stimuli[0].IsMatch {
			if !c.Claim("letter") {
				t.Fatalf("trial %d: claim rejected inside the window", spec.Index)
			}
		} else if !sched.fire() { // budget elapses
			t.Fatalf("no expiry timer pending")
		}
		sched.fire() // trial gap, absent after the last trial
	}

	res, ok := c.Result()
	if !ok {
		t.Fatalf("no result after session")
	}
	if res.Accuracy != 100 {
		t.Fatalf("accuracy %.1f with perfect play, want 100", res.Accuracy)
	}
	if res.Counts[model.OutcomeFalseAlarm] != 0 || res.Counts[model.OutcomeMiss] != 0 {
		t.Fatalf("perfect play produced errors: %v", res.Counts)
	}
	if res.Reward <= 0 {
		t.Fatalf("perfect session earned %d sparks", res.Reward)
	}
}

func TestRespondOutsideRunningIsNoOp(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, nil, log)

	if c.Respond(model.ResponseRecord{Choice: "red"}) {
		t.Fatalf("response accepted in menu phase")
	}
	if c.Claim("letter") {
		t.Fatalf("claim accepted in menu phase")
	}
}

func TestAbortReturnsToMenu(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, nil, log)

	if err := c.Start("gonogo", "easy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched.fire() // window opens
	c.Abort()
	if c.Phase() != model.PhaseMenu {
		t.Fatalf("phase %s after abort, want menu", c.Phase())
	}
	// Stale timers from the aborted session must stay silent.
	for sched.fire() {
	}
	if c.Phase() != model.PhaseMenu {
		t.Fatalf("stale timer moved the phase to %s", c.Phase())
	}
	if got := log.count(EventFinished); got != 0 {
		t.Fatalf("aborted session emitted %d finished events", got)
	}
}

func TestRestartGeneratesFreshSession(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, nil, log)

	if err := c.Restart(); err == nil {
		t.Fatalf("restart from menu should fail")
	}
	if err := c.Start("gonogo", "easy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	runToResults(t, c, sched)
	if err := c.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if c.Phase() != model.PhaseRunning {
		t.Fatalf("phase %s after restart, want running", c.Phase())
	}
	if idx, total := c.Progress(); idx != 0 || total == 0 {
		t.Fatalf("restart did not reset progress: %d/%d", idx, total)
	}
	if _, ok := c.Result(); ok {
		t.Fatalf("stale result visible after restart")
	}
}

func TestSubmitConfirmsReward(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, fakeSubmitter{reward: 42}, log)

	if err := c.Start("gonogo", "easy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	runToResults(t, c, sched)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if confirmed, ok := c.AuthoritativeReward(); ok {
			if confirmed != 42 {
				t.Fatalf("authoritative reward %d, want 42", confirmed)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("authoritative reward never arrived")
		}
		time.Sleep(time.Millisecond)
	}
	if got := log.count(EventRewardConfirmed); got != 1 {
		t.Fatalf("%d reward-confirmed events, want 1", got)
	}
}

func TestSubmitFailureKeepsLocalReward(t *testing.T) {
	sched := &fakeScheduler{}
	log := &eventLog{}
	c := newTestController(sched, fakeSubmitter{err: errors.New("service down")}, log)

	if err := c.Start("gonogo", "easy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	runToResults(t, c, sched)

	deadline := time.Now().Add(2 * time.Second)
	for log.count(EventSubmitFailed) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("submit failure never reported")
		}
		time.Sleep(time.Millisecond)
	}
	if _, ok := c.AuthoritativeReward(); ok {
		t.Fatalf("failed submit still set an authoritative reward")
	}
	if _, ok := c.Result(); !ok {
		t.Fatalf("local result lost after failed submit")
	}
}
