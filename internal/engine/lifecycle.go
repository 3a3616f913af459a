package engine

import (
	"context"

	"github.com/mpratt21/courtside/internal/models"
)

// playersPerLineup is the number of declared on-court players each team needs
// before a game may start.
const playersPerLineup = 5

// Start transitions scheduled/paused → active. It requires two full lineups
// and starts the game clock only; the shot clock is resumed or reset
// explicitly by the clock operator.
func (s *session) Start(ctx context.Context) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.game.Status {
	case models.GameStatusScheduled:
		if err := s.requireFullLineups(); err != nil {
			return nil, err
		}
	case models.GameStatusPaused:
		// Resuming via Start is allowed; lineups were validated at first start.
	default:
		return nil, stateConflictf("cannot start game in status %s", s.game.Status)
	}

	now := s.clk.Now()
	first := s.game.Status == models.GameStatusScheduled
	s.game.Status = models.GameStatusActive
	if first {
		t := now
		s.game.StartedAt = &t
	}
	s.gameClock.start(now)

	marker := models.StatEventGameStarted
	if !first {
		marker = models.StatEventGameResumed
	}
	ev, err := s.append(ctx, models.StatEvent{Type: marker})
	if err != nil {
		return nil, err
	}
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}
	s.wake()
	s.log.Info().Bool("first_start", first).Msg("game started")
	return s.lifecycleDelta(ev), nil
}

// Pause transitions active → paused and stops both clocks.
func (s *session) Pause(ctx context.Context) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status != models.GameStatusActive {
		return nil, stateConflictf("cannot pause game in status %s", s.game.Status)
	}

	now := s.clk.Now()
	s.game.Status = models.GameStatusPaused
	s.gameClock.stop(now)
	s.shot.stop(now)

	ev, err := s.append(ctx, models.StatEvent{Type: models.StatEventGamePaused})
	if err != nil {
		return nil, err
	}
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}
	s.log.Info().Msg("game paused")
	return s.lifecycleDelta(ev), nil
}

// Resume transitions paused → active and restarts the game clock only. The
// shot clock stays stopped until the operator resumes or resets it.
func (s *session) Resume(ctx context.Context) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status != models.GameStatusPaused {
		return nil, stateConflictf("cannot resume game in status %s", s.game.Status)
	}

	now := s.clk.Now()
	s.game.Status = models.GameStatusActive
	s.gameClock.start(now)

	ev, err := s.append(ctx, models.StatEvent{Type: models.StatEventGameResumed})
	if err != nil {
		return nil, err
	}
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}
	s.wake()
	s.log.Info().Msg("game resumed")
	return s.lifecycleDelta(ev), nil
}

// End transitions active/paused → completed and locks the event log. With
// force set, an in-flight free-throw sequence or pending prompts are
// discarded instead of blocking the transition.
func (s *session) End(ctx context.Context, force bool) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.game.Status {
	case models.GameStatusActive, models.GameStatusPaused:
	default:
		return nil, stateConflictf("cannot end game in status %s", s.game.Status)
	}
	if s.ft != nil && !force {
		return nil, stateConflictf("free throw sequence in progress; end with force to discard")
	}

	now := s.clk.Now()
	s.game.Status = models.GameStatusCompleted
	t := now
	s.game.CompletedAt = &t
	s.gameClock.stop(now)
	s.shot.stop(now)
	s.shot.clearViolation()
	s.ft = nil
	s.discardPrompt(PromptAssist, "game ended")
	s.discardPrompt(PromptRebound, "game ended")
	s.last = nil

	ev, err := s.append(ctx, models.StatEvent{Type: models.StatEventGameEnded})
	if err != nil {
		return nil, err
	}
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}
	s.log.Info().
		Int("home_score", s.game.HomeScore).
		Int("away_score", s.game.AwayScore).
		Msg("game ended")
	return s.lifecycleDelta(ev), nil
}

// Reactivate is the corrective escape hatch: completed → active, logged for
// audit. Clocks stay stopped until the operator restarts them.
func (s *session) Reactivate(ctx context.Context) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status != models.GameStatusCompleted {
		return nil, stateConflictf("cannot reactivate game in status %s", s.game.Status)
	}

	s.game.Status = models.GameStatusActive
	s.game.CompletedAt = nil

	ev, err := s.append(ctx, models.StatEvent{Type: models.StatEventGameReactivated})
	if err != nil {
		return nil, err
	}
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}
	s.wake()
	s.log.Warn().Msg("completed game reactivated")
	return s.lifecycleDelta(ev), nil
}

// SetQuarter pauses play, moves to the given quarter, resets the shot clock,
// and optionally resets the game clock to the configured period length.
// Quarter 5 and beyond are overtime periods and use the overtime length.
func (s *session) SetQuarter(ctx context.Context, quarter int, resetTime bool) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.game.Status {
	case models.GameStatusActive, models.GameStatusPaused:
	default:
		return nil, stateConflictf("cannot change quarter in status %s", s.game.Status)
	}
	if quarter < 1 {
		return nil, validationf("quarter must be >= 1, got %d", quarter)
	}
	if s.ft != nil {
		return nil, stateConflictf("free throw sequence in progress")
	}

	now := s.clk.Now()
	s.game.Status = models.GameStatusPaused
	s.gameClock.stop(now)
	s.game.CurrentQuarter = quarter
	s.quarterEndSignaled = false
	s.shot.reset(float64(s.game.Config.ShotClockSec), now, false)
	if resetTime {
		length := s.game.Config.QuarterLengthSec
		if models.IsOvertime(quarter) {
			length = s.game.Config.OvertimeLengthSec
		}
		s.gameClock.set(float64(length), now)
	}
	s.discardPrompt(PromptAssist, "quarter changed")
	s.discardPrompt(PromptRebound, "quarter changed")

	ev, err := s.append(ctx, models.StatEvent{Type: models.StatEventQuarterAdvanced})
	if err != nil {
		return nil, err
	}
	s.refreshBonus()
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}
	s.wake()
	s.log.Info().Int("quarter", quarter).Bool("reset_time", resetTime).Msg("quarter set")
	return s.lifecycleDelta(ev), nil
}

// AdvanceQuarter is SetQuarter(current+1, true).
func (s *session) AdvanceQuarter(ctx context.Context) (*Delta, error) {
	s.mu.Lock()
	q := s.game.CurrentQuarter + 1
	s.mu.Unlock()
	return s.SetQuarter(ctx, q, true)
}

func (s *session) requireFullLineups() error {
	counts := make(map[string]int, 2)
	for _, ps := range s.players {
		if ps.OnCourt {
			counts[ps.TeamID.String()]++
		}
	}
	for _, tid := range []string{s.game.HomeTeamID.String(), s.game.AwayTeamID.String()} {
		if counts[tid] != playersPerLineup {
			return stateConflictf("team %s has %d on-court players declared, need %d", tid, counts[tid], playersPerLineup)
		}
	}
	return nil
}

func (s *session) lifecycleDelta(ev models.StatEvent) *Delta {
	return &Delta{
		Seq:       s.seq,
		Events:    []models.StatEvent{ev},
		HomeScore: s.game.HomeScore,
		AwayScore: s.game.AwayScore,
	}
}
