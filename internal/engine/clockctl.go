package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/models"
)

// SetGameTime is a manual operator edit of the game clock. The value bypasses
// the decay formula and is re-stamped at the authority's current time.
func (s *session) SetGameTime(ctx context.Context, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status == models.GameStatusCompleted {
		return stateConflictf("cannot edit clock of a completed game")
	}
	max := float64(s.game.Config.QuarterLengthSec)
	if models.IsOvertime(s.game.CurrentQuarter) {
		max = float64(s.game.Config.OvertimeLengthSec)
	}
	if seconds < 0 || seconds > max {
		return validationf("game time %.1f out of range [0, %.0f]", seconds, max)
	}

	s.gameClock.set(seconds, s.clk.Now())
	if seconds > 0 {
		s.quarterEndSignaled = false
	}
	s.wake()
	s.log.Info().Float64("seconds", seconds).Msg("game clock edited")
	return nil
}

// SetShotClockTime is a manual operator edit of the shot clock.
func (s *session) SetShotClockTime(ctx context.Context, seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status == models.GameStatusCompleted {
		return stateConflictf("cannot edit clock of a completed game")
	}
	if seconds < 0 || seconds > float64(s.game.Config.ShotClockSec) {
		return validationf("shot clock %.1f out of range [0, %d]", seconds, s.game.Config.ShotClockSec)
	}

	s.shot.set(seconds, s.clk.Now())
	s.shot.clearViolation()
	s.wake()
	s.log.Info().Float64("seconds", seconds).Msg("shot clock edited")
	return nil
}

// ResetShotClock stamps the full or offensive-rebound value and starts the
// countdown when the game is live.
func (s *session) ResetShotClock(ctx context.Context, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status == models.GameStatusCompleted {
		return stateConflictf("cannot reset shot clock of a completed game")
	}
	if seconds != s.game.Config.ShotClockSec && seconds != s.game.Config.ShotClockResetSec {
		return validationf("shot clock reset must be %d or %d seconds", s.game.Config.ShotClockSec, s.game.Config.ShotClockResetSec)
	}

	run := s.game.Status == models.GameStatusActive
	s.shot.reset(float64(seconds), s.clk.Now(), run)
	s.wake()
	s.log.Info().Int("seconds", seconds).Bool("running", run).Msg("shot clock reset")
	return nil
}

// StartShotClock resumes the shot clock countdown from its current value.
// Resume of the game restarts the game clock only, so this is the explicit
// second step the shot clock operator performs.
func (s *session) StartShotClock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status != models.GameStatusActive {
		return stateConflictf("cannot run shot clock while game is %s", s.game.Status)
	}
	if s.shot.violationPending {
		return stateConflictf("shot clock violation pending")
	}
	s.shot.start(s.clk.Now())
	s.wake()
	return nil
}

// StopShotClock halts the shot clock countdown without resetting it.
func (s *session) StopShotClock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shot.stop(s.clk.Now())
	return nil
}

// AcknowledgeViolation records the pending shot clock violation as a turnover
// event stamped at the game time the clock actually expired, then resets the
// shot clock.
func (s *session) AcknowledgeViolation(ctx context.Context, requestID uuid.UUID) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(requestID); ok {
		return d, nil
	}
	if !s.shot.violationPending {
		return nil, stateConflictf("no shot clock violation pending")
	}

	now := s.clk.Now()
	// The clock stopped at zero when the violation went pending; the game
	// time then is the retroactive stamp for the violation event.
	gameTimeAtExpiry := s.gameClock.displayed(s.shot.lastSync)

	ev := models.StatEvent{
		Type:     models.StatEventShotClockViolation,
		GameTime: gameTimeAtExpiry,
	}
	ev.Meta.ViolationAt = gameTimeAtExpiry

	applied, err := s.append(ctx, ev)
	if err != nil {
		return nil, err
	}
	s.shot.reset(float64(s.game.Config.ShotClockSec), now, s.game.Status == models.GameStatusActive)
	s.wake()
	s.log.Info().Float64("game_time", gameTimeAtExpiry).Msg("shot clock violation recorded")

	d := &Delta{
		Seq:       s.seq,
		Events:    []models.StatEvent{applied},
		HomeScore: s.game.HomeScore,
		AwayScore: s.game.AwayScore,
	}
	s.remember(requestID, d)
	return d, nil
}
