package engine

import (
	"context"
	"time"
)

// idlePollDuration bounds how long the scheduler sleeps when no session has a
// pending deadline. New deadlines normally arrive via the wake channel; the
// poll is a backstop.
const idlePollDuration = 5 * time.Second

// earliestDeadline scans every hosted session for the soonest deadline.
func (e *Engine) earliestDeadline(now time.Time) time.Time {
	e.mu.RLock()
	sessions := make([]*session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.RUnlock()

	var earliest time.Time
	for _, s := range sessions {
		d := s.nextDeadline(now)
		if d.IsZero() {
			continue
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	return earliest
}

// tickDue runs the deadline handler on every session whose next deadline has
// arrived.
func (e *Engine) tickDue(ctx context.Context, now time.Time) {
	e.mu.RLock()
	sessions := make([]*session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.RUnlock()

	for _, s := range sessions {
		d := s.nextDeadline(now)
		if d.IsZero() || d.After(now) {
			continue
		}
		s.onTick(ctx, now)
	}
}

// RunScheduler loops until the context is cancelled, sleeping until the
// earliest session deadline and firing due clock expiries and prompt
// timeouts. Mutating operations wake it early whenever they may have created
// a sooner deadline.
func (e *Engine) RunScheduler(ctx context.Context) error {
	e.log.Info().Msg("scheduler started")

	timer := e.clk.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-e.wakeCh:
		default:
		}

		now := e.clk.Now()
		deadline := e.earliestDeadline(now)

		if deadline.IsZero() {
			timer.Reset(idlePollDuration)
			select {
			case <-timer.Chan():
				continue
			case <-e.wakeCh:
				continue
			case <-ctx.Done():
				e.log.Info().Msg("scheduler shutting down")
				return nil
			}
		}

		if wait := deadline.Sub(now); wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.Chan():
			case <-e.wakeCh:
				// A mutation may have moved the earliest deadline; recompute.
				continue
			case <-ctx.Done():
				e.log.Info().Msg("scheduler shutting down")
				return nil
			}
		}

		e.tickDue(ctx, e.clk.Now())
	}
}
