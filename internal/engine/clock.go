package engine

import (
	"time"
)

// clockState is the authority-side representation of one countdown. Readers
// derive the displayed value from the triple instead of counting down locally,
// so every connected display converges on the same value regardless of client
// clock skew. Writes always re-stamp lastSync with the authority's clock.
type clockState struct {
	remaining float64 // seconds at last sync
	lastSync  time.Time
	running   bool
}

// displayed computes the current countdown value, clamped to zero.
func (c *clockState) displayed(now time.Time) float64 {
	if !c.running {
		return c.remaining
	}
	v := c.remaining - now.Sub(c.lastSync).Seconds()
	if v < 0 {
		return 0
	}
	return v
}

// start begins the countdown from the current remaining value.
func (c *clockState) start(now time.Time) {
	if c.running {
		return
	}
	c.lastSync = now
	c.running = true
}

// stop folds elapsed time into remaining and halts the countdown.
func (c *clockState) stop(now time.Time) {
	if !c.running {
		return
	}
	c.remaining = c.displayed(now)
	c.running = false
}

// set is a manual operator edit: it bypasses the decay formula and resets the
// synced value outright, preserving the running flag.
func (c *clockState) set(seconds float64, now time.Time) {
	c.remaining = seconds
	c.lastSync = now
}

// expiresAt returns the server time at which the countdown reaches zero, or
// the zero time when the clock is stopped or already expired.
func (c *clockState) expiresAt(now time.Time) time.Time {
	if !c.running {
		return time.Time{}
	}
	rem := c.displayed(now)
	if rem <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(rem * float64(time.Second)))
}

// shotClock layers violation tracking on top of the countdown. Reaching zero
// while running enters violationPending for a bounded grace window; an
// operator may retroactively record the violation during the window, after
// which it auto-clears.
type shotClock struct {
	clockState
	violationPending bool
	graceDeadline    time.Time
}

// expire transitions the shot clock into the pending-violation state.
func (s *shotClock) expire(now time.Time, grace time.Duration) {
	s.remaining = 0
	s.lastSync = now
	s.running = false
	s.violationPending = true
	s.graceDeadline = now.Add(grace)
}

// clearViolation leaves the pending state without recording a violation.
func (s *shotClock) clearViolation() {
	s.violationPending = false
	s.graceDeadline = time.Time{}
}

// reset stamps a fresh full or short value and clears any pending violation.
func (s *shotClock) reset(seconds float64, now time.Time, run bool) {
	s.remaining = seconds
	s.lastSync = now
	s.running = run
	s.clearViolation()
}
