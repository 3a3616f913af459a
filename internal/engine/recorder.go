package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/models"
)

// StatType is the operator-facing classification of a recordable stat.
type StatType string

const (
	StatShot2    StatType = "SHOT2"
	StatShot3    StatType = "SHOT3"
	StatRebound  StatType = "REBOUND"
	StatAssist   StatType = "ASSIST"
	StatSteal    StatType = "STEAL"
	StatBlock    StatType = "BLOCK"
	StatTurnover StatType = "TURNOVER"

	// Undo keys for actions recorded through dedicated operations.
	StatFoul         StatType = "FOUL"
	StatFreeThrow    StatType = "FREE_THROW"
	StatTimeout      StatType = "TIMEOUT"
	StatSubstitution StatType = "SUBSTITUTION"
)

// RecordStatRequest is one operator stat entry.
type RecordStatRequest struct {
	RequestID   uuid.UUID
	PlayerID    uuid.UUID
	Type        StatType
	Made        bool
	ReboundKind models.ReboundKind // required for Type == StatRebound
}

// FoulOptions carries the context that determines free-throw consequences.
type FoulOptions struct {
	// ShotPoints is the value of the fouled shot (2 or 3) for shooting fouls.
	ShotPoints int
	// AndOne marks a shooting foul on a made basket: one free throw.
	AndOne bool
	// FouledPlayerID shoots any awarded free throws. Required whenever the
	// foul yields attempts.
	FouledPlayerID uuid.UUID
}

// RecordStat validates, appends, and updates aggregates for a shot or simple
// stat. Made shots schedule an assist advisory, missed shots a rebound
// advisory; both are fire-and-forget relative to the log.
func (s *session) RecordStat(ctx context.Context, req RecordStatRequest) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(req.RequestID); ok {
		return d, nil
	}
	if err := s.requireRecordable(); err != nil {
		return nil, err
	}
	ps, err := s.player(req.PlayerID)
	if err != nil {
		return nil, err
	}

	var ev models.StatEvent
	switch req.Type {
	case StatShot2:
		typ := models.StatEventShot2Missed
		if req.Made {
			typ = models.StatEventShot2Made
		}
		ev = s.baseEvent(typ, req.PlayerID, ps.TeamID)
		made := req.Made
		ev.Meta.Made = &made
	case StatShot3:
		typ := models.StatEventShot3Missed
		if req.Made {
			typ = models.StatEventShot3Made
		}
		ev = s.baseEvent(typ, req.PlayerID, ps.TeamID)
		made := req.Made
		ev.Meta.Made = &made
	case StatRebound:
		if req.ReboundKind != models.ReboundOffensive && req.ReboundKind != models.ReboundDefensive {
			return nil, validationf("rebound kind must be offensive or defensive")
		}
		ev = s.baseEvent(models.StatEventRebound, req.PlayerID, ps.TeamID)
		ev.Meta.ReboundKind = req.ReboundKind
	case StatAssist:
		ev = s.baseEvent(models.StatEventAssist, req.PlayerID, ps.TeamID)
	case StatSteal:
		ev = s.baseEvent(models.StatEventSteal, req.PlayerID, ps.TeamID)
	case StatBlock:
		ev = s.baseEvent(models.StatEventBlock, req.PlayerID, ps.TeamID)
	case StatTurnover:
		ev = s.baseEvent(models.StatEventTurnover, req.PlayerID, ps.TeamID)
	default:
		return nil, validationf("unknown stat type %q", req.Type)
	}

	s.supersedePrompts(ev.Type)

	applied, err := s.append(ctx, ev)
	if err != nil {
		return nil, err
	}

	var opened PromptKind
	now := s.clk.Now()
	window := time.Duration(s.game.Config.PromptWindowSec) * time.Second
	switch applied.Type {
	case models.StatEventShot2Made, models.StatEventShot3Made:
		s.prompts[PromptAssist] = newAssistPrompt(applied.ID, req.PlayerID, now, window)
		opened = PromptAssist
		s.shot.reset(float64(s.game.Config.ShotClockSec), now, s.shot.running)
	case models.StatEventShot2Missed, models.StatEventShot3Missed:
		s.prompts[PromptRebound] = newReboundPrompt(applied.ID, ps.TeamID, now, window)
		opened = PromptRebound
	case models.StatEventRebound:
		if req.ReboundKind == models.ReboundOffensive {
			s.shot.reset(float64(s.game.Config.ShotClockResetSec), now, s.shot.running)
		} else {
			s.shot.reset(float64(s.game.Config.ShotClockSec), now, s.shot.running)
		}
	case models.StatEventSteal, models.StatEventTurnover:
		s.shot.reset(float64(s.game.Config.ShotClockSec), now, s.shot.running)
	}

	s.last = &actionRecord{
		playerID:         req.PlayerID,
		statType:         req.Type,
		made:             ev.Meta.Made,
		eventIDs:         []uuid.UUID{applied.ID},
		seqAfter:         s.seq,
		openedPromptKind: opened,
	}
	s.wake()

	d := s.statDelta(applied, ps, s.teams[ps.TeamID])
	if opened != "" {
		d.Prompt = s.prompts[opened]
	}
	s.remember(req.RequestID, d)
	return d, nil
}

// RecordFoul appends a foul with context, recomputes the bonus, and starts a
// free-throw sequence when the foul type or bonus standing calls for one.
func (s *session) RecordFoul(ctx context.Context, requestID, playerID uuid.UUID, foulType models.FoulType, opts FoulOptions) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(requestID); ok {
		return d, nil
	}
	if err := s.requireRecordable(); err != nil {
		return nil, err
	}
	ps, err := s.player(playerID)
	if err != nil {
		return nil, err
	}
	switch foulType {
	case models.FoulPersonal, models.FoulShooting, models.FoulTechnical, models.FoulFlagrant:
	default:
		return nil, validationf("unknown foul type %q", foulType)
	}
	shooting := foulType == models.FoulShooting || opts.AndOne
	if shooting && opts.ShotPoints != 2 && opts.ShotPoints != 3 && !opts.AndOne {
		return nil, validationf("shooting foul requires shot_points 2 or 3")
	}

	// The fouling team's quarter foul count decides whether the opponent
	// shoots the bonus. Computed before the append so the threshold foul
	// itself triggers it.
	preBonus := computeBonus(s.events, ps.TeamID, s.game.CurrentQuarter, s.game.Config)

	needsSequence := false
	var seqShotPoints int
	var seqAndOne, seqOneAndOne bool
	switch {
	case foulType == models.FoulTechnical:
		needsSequence = true
		seqShotPoints = 0
	case shooting:
		needsSequence = true
		seqShotPoints = opts.ShotPoints
		seqAndOne = opts.AndOne
	case countsTowardTeamFouls(foulType):
		// The foul being recorded is the (preBonus.Fouls+1)-th team foul.
		bonus, double := bonusThresholds(s.game.Config.BonusMode)
		after := preBonus.Fouls + 1
		if after >= bonus {
			needsSequence = true
			if s.game.Config.BonusMode == models.BonusModeCollege && (double == 0 || after < double) {
				seqOneAndOne = true
			}
		}
	}

	if needsSequence {
		if s.ft != nil {
			return nil, ErrSequenceConflict
		}
		if opts.FouledPlayerID == uuid.Nil {
			return nil, validationf("foul awards free throws but no fouled player given")
		}
		if _, err := s.player(opts.FouledPlayerID); err != nil {
			return nil, err
		}
	}

	ev := s.baseEvent(models.StatEventFoul, playerID, ps.TeamID)
	ev.Meta.FoulType = foulType
	ev.Meta.ShotPoints = opts.ShotPoints
	ev.Meta.AndOne = opts.AndOne
	ev.Meta.OneAndOne = seqOneAndOne

	applied, err := s.append(ctx, ev)
	if err != nil {
		return nil, err
	}
	s.refreshBonus()

	if needsSequence {
		shooter := s.players[opts.FouledPlayerID]
		s.ft = newFreeThrowSequence(opts.FouledPlayerID, shooter.TeamID, seqShotPoints, seqAndOne, seqOneAndOne)
		if foulType == models.FoulTechnical {
			// One attempt under NBA rules, two under college rules.
			s.ft.TotalAttempts = 1
			if s.game.Config.BonusMode == models.BonusModeCollege {
				s.ft.TotalAttempts = 2
			}
		}
		s.ftSourceEventID = applied.ID
		s.log.Info().
			Str("shooter", opts.FouledPlayerID.String()).
			Int("attempts", s.ft.TotalAttempts).
			Bool("one_and_one", s.ft.IsOneAndOne).
			Msg("free throw sequence started")
	}
	if ps.FouledOut {
		s.log.Info().Str("player_id", playerID.String()).Int("fouls", ps.Fouls).Msg("player disqualified on fouls")
	}

	s.last = &actionRecord{
		playerID:       playerID,
		statType:       StatFoul,
		eventIDs:       []uuid.UUID{applied.ID},
		seqAfter:       s.seq,
		openedSequence: needsSequence,
	}
	s.wake()

	d := s.statDelta(applied, ps, s.teams[ps.TeamID])
	d.FreeThrow = s.ft
	s.remember(requestID, d)
	return d, nil
}

// RecordFreeThrowResult resolves the next attempt of the active sequence.
// Each attempt is its own log event. A missed final attempt (or a missed
// one-and-one front end) opens a rebound advisory.
func (s *session) RecordFreeThrowResult(ctx context.Context, requestID uuid.UUID, made bool) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(requestID); ok {
		return d, nil
	}
	if err := s.requireRecordable(); err != nil {
		return nil, err
	}
	if s.ft == nil {
		return nil, ErrNoActiveSequence
	}

	seq := s.ft
	ev := s.baseEvent(models.StatEventFreeThrow, seq.PlayerID, seq.TeamID)
	m := made
	ev.Meta.Made = &m
	ev.Meta.Attempt = seq.CurrentAttempt
	ev.Meta.OfAttempts = seq.TotalAttempts
	ev.Meta.OneAndOne = seq.IsOneAndOne

	applied, err := s.append(ctx, ev)
	if err != nil {
		return nil, err
	}

	before := seq.clone()
	sourceBefore := s.ftSourceEventID
	done, finalMissed := seq.recordAttempt(made)
	var opened PromptKind
	if done {
		s.ft = nil
		s.ftSourceEventID = uuid.Nil
		if finalMissed {
			now := s.clk.Now()
			window := time.Duration(s.game.Config.PromptWindowSec) * time.Second
			s.prompts[PromptRebound] = newReboundPrompt(applied.ID, seq.TeamID, now, window)
			opened = PromptRebound
		}
		s.log.Info().Bool("final_missed", finalMissed).Msg("free throw sequence complete")
	}

	s.last = &actionRecord{
		playerID:         seq.PlayerID,
		statType:         StatFreeThrow,
		made:             &m,
		eventIDs:         []uuid.UUID{applied.ID},
		seqAfter:         s.seq,
		openedPromptKind: opened,
		ftBefore:         before,
		ftSourceBefore:   sourceBefore,
	}
	s.wake()

	ps := s.players[seq.PlayerID]
	d := s.statDelta(applied, ps, s.teams[seq.TeamID])
	d.FreeThrow = s.ft
	if opened != "" {
		d.Prompt = s.prompts[opened]
	}
	s.remember(requestID, d)
	return d, nil
}

// RecordTeamRebound records a dead-ball team rebound.
func (s *session) RecordTeamRebound(ctx context.Context, requestID, teamID uuid.UUID, kind models.ReboundKind) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(requestID); ok {
		return d, nil
	}
	if err := s.requireRecordable(); err != nil {
		return nil, err
	}
	ts, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	if kind != models.ReboundOffensive && kind != models.ReboundDefensive {
		return nil, validationf("rebound kind must be offensive or defensive")
	}

	tid := teamID
	ev := models.StatEvent{
		Type:   models.StatEventRebound,
		TeamID: &tid,
	}
	ev.Meta.ReboundKind = kind
	ev.Meta.TeamRebound = true

	s.supersedePrompts(models.StatEventRebound)

	applied, err := s.append(ctx, ev)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	if kind == models.ReboundOffensive {
		s.shot.reset(float64(s.game.Config.ShotClockResetSec), now, s.shot.running)
	} else {
		s.shot.reset(float64(s.game.Config.ShotClockSec), now, s.shot.running)
	}

	s.last = &actionRecord{
		statType: StatRebound,
		eventIDs: []uuid.UUID{applied.ID},
		seqAfter: s.seq,
	}
	s.wake()

	d := s.statDelta(applied, nil, ts)
	s.remember(requestID, d)
	return d, nil
}

// RecordTimeout charges a timeout to a team and pauses the game.
func (s *session) RecordTimeout(ctx context.Context, requestID, teamID uuid.UUID) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(requestID); ok {
		return d, nil
	}
	if s.game.Status != models.GameStatusActive {
		return nil, stateConflictf("cannot take timeout while game is %s", s.game.Status)
	}
	ts, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	if ts.TimeoutsRemaining <= 0 {
		return nil, validationf("team %s has no timeouts remaining", teamID)
	}

	tid := teamID
	ev := models.StatEvent{Type: models.StatEventTimeout, TeamID: &tid}

	applied, err := s.append(ctx, ev)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	s.game.Status = models.GameStatusPaused
	s.gameClock.stop(now)
	s.shot.stop(now)
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}

	s.last = &actionRecord{
		statType: StatTimeout,
		eventIDs: []uuid.UUID{applied.ID},
		seqAfter: s.seq,
	}

	d := s.statDelta(applied, nil, ts)
	s.remember(requestID, d)
	s.log.Info().Str("team_id", teamID.String()).Int("remaining", ts.TimeoutsRemaining).Msg("timeout taken")
	return d, nil
}

// Substitute toggles a player's on-court flag. A foul-disqualified player may
// not re-enter.
func (s *session) Substitute(ctx context.Context, requestID, playerID uuid.UUID, onCourt bool) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(requestID); ok {
		return d, nil
	}
	ps, err := s.player(playerID)
	if err != nil {
		return nil, err
	}
	if s.game.Status == models.GameStatusCompleted {
		return nil, stateConflictf("cannot substitute in a completed game")
	}
	if onCourt && ps.FouledOut {
		return nil, stateConflictf("player %s is disqualified on fouls", playerID)
	}
	if ps.OnCourt == onCourt {
		return nil, validationf("player %s is already %s", playerID, courtLabel(onCourt))
	}

	ev := s.baseEvent(models.StatEventSubstitution, playerID, ps.TeamID)
	oc := onCourt
	ev.Meta.OnCourt = &oc

	applied, err := s.append(ctx, ev)
	if err != nil {
		return nil, err
	}

	s.last = &actionRecord{
		playerID: playerID,
		statType: StatSubstitution,
		eventIDs: []uuid.UUID{applied.ID},
		seqAfter: s.seq,
	}

	d := s.statDelta(applied, ps, s.teams[ps.TeamID])
	s.remember(requestID, d)
	return d, nil
}

// UndoStat reverses the most recent compound action when it matches the
// given player/type/made key. Later events make the undo stale; cascades the
// action opened (prompt, free-throw sequence) are cancelled, not orphaned.
func (s *session) UndoStat(ctx context.Context, requestID, playerID uuid.UUID, statType StatType, wasMade *bool) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.dedupe(requestID); ok {
		return d, nil
	}
	if err := s.requireRecordable(); err != nil {
		return nil, err
	}
	if s.last == nil {
		return nil, ErrStaleUndo
	}
	a := s.last
	if s.seq != a.seqAfter {
		return nil, ErrStaleUndo
	}
	if a.playerID != playerID || a.statType != statType {
		return nil, ErrStaleUndo
	}
	if wasMade != nil && (a.made == nil || *a.made != *wasMade) {
		return nil, ErrStaleUndo
	}

	if err := s.removeTail(ctx, a.eventIDs); err != nil {
		return nil, err
	}
	s.seq -= int64(len(a.eventIDs))

	// Cancel cascades opened by the undone action.
	if a.openedPromptKind != "" {
		s.discardPrompt(a.openedPromptKind, "undo")
	}
	if a.openedSequence && s.ft != nil {
		s.ft = nil
		s.ftSourceEventID = uuid.Nil
		s.log.Info().Msg("free throw sequence cancelled by undo")
	}
	if a.ftBefore != nil {
		// The undone event was a free-throw attempt: put the sequence back
		// where it stood before the attempt, reinstating it if the attempt
		// had completed it.
		s.ft = a.ftBefore.clone()
		s.ftSourceEventID = a.ftSourceBefore
		s.log.Info().
			Int("current_attempt", s.ft.CurrentAttempt).
			Int("total_attempts", s.ft.TotalAttempts).
			Msg("free throw attempt undone, sequence restored")
	}

	s.refreshBonus()
	if err := s.persistGame(ctx); err != nil {
		return nil, err
	}
	s.last = nil

	var ps *models.PlayerGameStat
	if p, ok := s.players[playerID]; ok {
		ps = p
	}
	d := &Delta{
		Seq:             s.seq,
		RemovedEventIDs: a.eventIDs,
		HomeScore:       s.game.HomeScore,
		AwayScore:       s.game.AwayScore,
		FreeThrow:       s.ft,
	}
	if ps != nil {
		cp := *ps
		d.Player = &cp
	}
	s.remember(requestID, d)
	s.log.Info().
		Str("player_id", playerID.String()).
		Str("stat_type", string(statType)).
		Msg("action undone")
	return d, nil
}

// ResolvePromptChoice carries the operator's answer to an advisory prompt.
type ResolvePromptChoice struct {
	// PlayerID credits an assist or a player rebound.
	PlayerID uuid.UUID
	// TeamRebound resolves a rebound prompt as a dead-ball team rebound for
	// TeamID instead of a player.
	TeamRebound bool
	TeamID      uuid.UUID
}

// ResolvePrompt answers a pending advisory, recording the resulting event
// through the normal append path. The prompt is not consumed here: the
// recorded event supersedes it on success, so a resolve that fails validation
// leaves the advisory pending, and a retried resolve hits the dedupe cache.
func (s *session) ResolvePrompt(ctx context.Context, requestID uuid.UUID, kind PromptKind, choice ResolvePromptChoice) (*Delta, error) {
	s.mu.Lock()
	if d, ok := s.dedupe(requestID); ok {
		s.mu.Unlock()
		return d, nil
	}
	p, ok := s.prompts[kind]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoPendingPrompt
	}

	switch kind {
	case PromptAssist:
		ps, err := s.player(choice.PlayerID)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if p.ScorerID != nil {
			if choice.PlayerID == *p.ScorerID {
				s.mu.Unlock()
				return nil, validationf("assist cannot be credited to the scorer")
			}
			if scorer, ok := s.players[*p.ScorerID]; ok && scorer.TeamID != ps.TeamID {
				s.mu.Unlock()
				return nil, validationf("assist must credit a teammate of the scorer")
			}
		}
		s.mu.Unlock()
		return s.RecordStat(ctx, RecordStatRequest{
			RequestID: requestID,
			PlayerID:  choice.PlayerID,
			Type:      StatAssist,
		})
	case PromptRebound:
		if choice.TeamRebound {
			rk := models.ReboundDefensive
			if p.ShooterTeamID != nil && choice.TeamID == *p.ShooterTeamID {
				rk = models.ReboundOffensive
			}
			s.mu.Unlock()
			return s.RecordTeamRebound(ctx, requestID, choice.TeamID, rk)
		}
		ps, err := s.player(choice.PlayerID)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		rk := models.ReboundDefensive
		if p.ShooterTeamID != nil && ps.TeamID == *p.ShooterTeamID {
			rk = models.ReboundOffensive
		}
		s.mu.Unlock()
		return s.RecordStat(ctx, RecordStatRequest{
			RequestID:   requestID,
			PlayerID:    choice.PlayerID,
			Type:        StatRebound,
			ReboundKind: rk,
		})
	}
	s.mu.Unlock()
	return nil, validationf("unknown prompt kind %q", kind)
}

// DismissPrompt discards a pending advisory without recording anything.
func (s *session) DismissPrompt(kind PromptKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prompts[kind]; !ok {
		return ErrNoPendingPrompt
	}
	s.discardPrompt(kind, "dismissed")
	return nil
}

func (s *session) statDelta(ev models.StatEvent, ps *models.PlayerGameStat, ts *models.TeamGameStat) *Delta {
	d := &Delta{
		Seq:       s.seq,
		Events:    []models.StatEvent{ev},
		HomeScore: s.game.HomeScore,
		AwayScore: s.game.AwayScore,
	}
	if ps != nil {
		cp := *ps
		d.Player = &cp
	}
	if ts != nil {
		cp := *ts
		d.Team = &cp
	}
	return d
}

func courtLabel(onCourt bool) string {
	if onCourt {
		return "on court"
	}
	return "off court"
}
