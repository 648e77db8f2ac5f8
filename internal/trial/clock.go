// Package trial drives the timed life cycle of a single trial.
package trial

import (
	"sync"
	"time"

	"github.com/dkarlsv/mindforge/internal/model"
)

// CancelFunc stops a pending scheduled call.
type CancelFunc func()

// Scheduler schedules a single deferred call. The production scheduler wraps
// time.AfterFunc; tests substitute a manual implementation.
type Scheduler interface {
	After(d time.Duration, fn func()) CancelFunc
}

// SystemScheduler schedules on the runtime timer heap.
type SystemScheduler struct{}

// After implements Scheduler.
func (SystemScheduler) After(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// State is the clock's position in the trial life cycle.
type State int

// Clock states. Resolved and Expired are terminal; exactly one of them is
// reported per trial. Cancelled terminates silently.
const (
	StateArmed State = iota
	StateActive
	StateResolved
	StateExpired
	StateCancelled
)

// Clock owns the timers of one trial: a stimulus-visible phase, then a
// response window that closes at the first of a qualifying response or the
// trial budget elapsing. A Clock is used for one trial and discarded.
type Clock struct {
	mu           sync.Mutex
	sched        Scheduler
	now          func() time.Time
	state        State
	spec         model.TrialSpec
	onsetAt      time.Time
	firstInput   time.Duration
	claims       map[string]bool
	claimTarget  int
	cancelArm    CancelFunc
	cancelExpiry CancelFunc
	onActive     func(model.TrialSpec)
	done         func(model.TrialSpec, model.ResponseRecord)
}

// NewClock builds a clock reporting its terminal outcome through done.
// onActive, when non-nil, fires once when the response window opens.
func NewClock(sched Scheduler, onActive func(model.TrialSpec), done func(model.TrialSpec, model.ResponseRecord)) *Clock {
	return &Clock{
		sched:    sched,
		now:      time.Now,
		onActive: onActive,
		done:     done,
	}
}

// Start arms the clock for a trial: after stimulusDur the response window
// opens, and budget later the trial expires unless resolved first.
// claimTarget is the number of per-modality claims that resolve the trial
// early; zero disables the claim path (single-answer tasks).
func (c *Clock) Start(spec model.TrialSpec, stimulusDur, budget time.Duration, claimTarget int) {
	c.mu.Lock()
	c.spec = spec
	c.state = StateArmed
	c.onsetAt = c.now()
	c.claims = map[string]bool{}
	c.claimTarget = claimTarget
	c.cancelArm = c.sched.After(stimulusDur, func() { c.activate(budget) })
	c.mu.Unlock()
}

func (c *Clock) activate(budget time.Duration) {
	c.mu.Lock()
	if c.state != StateArmed {
		c.mu.Unlock()
		return
	}
	c.state = StateActive
	c.cancelExpiry = c.sched.After(budget, c.expire)
	spec := c.spec
	notify := c.onActive
	c.mu.Unlock()
	if notify != nil {
		notify(spec)
	}
}

// expire closes the response window. Claims gathered during the window still
// count as a response; only a fully silent trial reports a timeout.
func (c *Clock) expire() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	spec := c.spec
	rec := model.ResponseRecord{TrialIndex: spec.Index}
	if len(c.claims) > 0 {
		c.state = StateResolved
		rec.Claims = c.claims
		rec.Elapsed = c.firstInput
	} else {
		c.state = StateExpired
		rec.TimedOut = true
		rec.Elapsed = c.now().Sub(c.onsetAt)
	}
	done := c.done
	c.mu.Unlock()
	done(spec, rec)
}

// Claim records a match judgment for one modality. The trial resolves as
// soon as every modality has been judged; otherwise the window stays open
// for the remaining channels. It reports whether the claim was accepted.
func (c *Clock) Claim(modality string) bool {
	c.mu.Lock()
	if c.state != StateActive || c.claimTarget == 0 {
		c.mu.Unlock()
		return false
	}
	if len(c.claims) == 0 {
		c.firstInput = c.now().Sub(c.onsetAt)
	}
	c.claims[modality] = true
	if len(c.claims) < c.claimTarget {
		c.mu.Unlock()
		return true
	}
	c.state = StateResolved
	if c.cancelExpiry != nil {
		c.cancelExpiry()
	}
	spec := c.spec
	rec := model.ResponseRecord{
		TrialIndex: spec.Index,
		Claims:     c.claims,
		Elapsed:    c.firstInput,
	}
	done := c.done
	c.mu.Unlock()
	done(spec, rec)
	return true
}

// Respond submits a single-answer response. It reports whether the response
// was accepted; late or premature responses are discarded.
func (c *Clock) Respond(rec model.ResponseRecord) bool {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return false
	}
	c.state = StateResolved
	if c.cancelExpiry != nil {
		c.cancelExpiry()
	}
	spec := c.spec
	rec.TrialIndex = spec.Index
	rec.TimedOut = false
	rec.Elapsed = c.now().Sub(c.onsetAt)
	done := c.done
	c.mu.Unlock()
	done(spec, rec)
	return true
}

// Cancel stops the clock without emitting a trial outcome. Pending timers
// are stopped and any late fire is suppressed.
func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateResolved || c.state == StateExpired {
		return
	}
	c.state = StateCancelled
	if c.cancelArm != nil {
		c.cancelArm()
	}
	if c.cancelExpiry != nil {
		c.cancelExpiry()
	}
}

// State returns the current clock state.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
