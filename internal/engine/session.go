package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mpratt21/courtside/internal/models"
)

// EventStore is what the engine needs from the durable event log.
type EventStore interface {
	Append(ctx context.Context, ev models.StatEvent) error
	Remove(ctx context.Context, gameID, eventID uuid.UUID) error
}

// GameStore is what the engine needs from the game record store.
type GameStore interface {
	UpdateGameState(ctx context.Context, game *models.Game) error
}

// EventSink receives accepted events and retractions for downstream fan-out
// (outbox → message bus → subscribed displays). Sink failures are logged, not
// propagated: the log append already committed and the feed is re-derivable.
type EventSink interface {
	EventAccepted(ctx context.Context, ev models.StatEvent) error
	EventRetracted(ctx context.Context, gameID, eventID uuid.UUID, seq int64) error
}

// LineupEntry declares one rostered player for a game session.
type LineupEntry struct {
	PlayerID uuid.UUID `json:"player_id"`
	TeamID   uuid.UUID `json:"team_id"`
	OnCourt  bool      `json:"on_court"`
}

// dedupeWindow bounds how many recent request IDs a session remembers for
// idempotent retry.
const dedupeWindow = 256

// actionRecord captures the most recent compound stat action for the
// single-level undo stack.
type actionRecord struct {
	playerID  uuid.UUID
	statType  StatType
	made      *bool
	eventIDs  []uuid.UUID
	seqAfter  int64
	openedPromptKind PromptKind // "" when the action opened no prompt
	openedSequence   bool

	// Free-throw attempts mutate the active sequence; undo restores it to
	// the pre-attempt state, including a sequence the attempt completed.
	ftBefore       *FreeThrowSequence
	ftSourceBefore uuid.UUID
}

// session is the authority for one live game. Every mutating operation takes
// the session mutex, so operations apply in receipt order and the event log
// has one total order. All derived state is recomputable from the log.
type session struct {
	mu sync.Mutex

	game  *models.Game
	clk   clockwork.Clock
	store EventStore
	games GameStore
	sink  EventSink
	log zerolog.Logger

	events []models.StatEvent
	seq    int64

	players map[uuid.UUID]*models.PlayerGameStat
	teams   map[uuid.UUID]*models.TeamGameStat

	gameClock clockState
	shot      shotClock

	ft              *FreeThrowSequence
	ftSourceEventID uuid.UUID

	prompts map[PromptKind]*PendingPrompt

	last *actionRecord

	quarterEndSignaled bool

	// Request deduplication for idempotent retries: accepted request IDs map
	// to their results, evicted FIFO.
	applied  map[uuid.UUID]*Delta
	reqRing  [dedupeWindow]uuid.UUID
	reqIdx   int

	wake func()
}

func newSession(game *models.Game, lineup []LineupEntry, clk clockwork.Clock, store EventStore, games GameStore, sink EventSink, logger zerolog.Logger, wake func()) (*session, error) {
	if game.Config.QuarterLengthSec <= 0 || game.Config.ShotClockSec <= 0 {
		return nil, validationf("game %s has no usable clock configuration", game.ID)
	}
	s := &session{
		game:    game,
		clk:     clk,
		store:   store,
		games:   games,
		sink:    sink,
		log:     logger.With().Str("game_id", game.ID.String()).Logger(),
		players: make(map[uuid.UUID]*models.PlayerGameStat),
		teams:   make(map[uuid.UUID]*models.TeamGameStat),
		prompts: make(map[PromptKind]*PendingPrompt),
		applied: make(map[uuid.UUID]*Delta),
		wake:    wake,
	}
	if game.CurrentQuarter == 0 {
		game.CurrentQuarter = 1
	}

	for _, tid := range []uuid.UUID{game.HomeTeamID, game.AwayTeamID} {
		s.teams[tid] = &models.TeamGameStat{
			TeamID:            tid,
			TimeoutsRemaining: game.Config.TimeoutsPerTeam,
		}
	}
	for _, le := range lineup {
		if _, ok := s.teams[le.TeamID]; !ok {
			return nil, validationf("lineup player %s belongs to unknown team %s", le.PlayerID, le.TeamID)
		}
		s.players[le.PlayerID] = &models.PlayerGameStat{
			PlayerID: le.PlayerID,
			TeamID:   le.TeamID,
			OnCourt:  le.OnCourt,
		}
	}

	s.gameClock = clockState{remaining: float64(game.Config.QuarterLengthSec)}
	s.shot = shotClock{clockState: clockState{remaining: float64(game.Config.ShotClockSec)}}
	return s, nil
}

// Delta is the authoritative result of an accepted mutating operation.
// Clients treat it (or a rejection) as the truth that overrides any
// optimistic local state.
type Delta struct {
	Seq             int64                  `json:"seq"`
	Events          []models.StatEvent     `json:"events,omitempty"`
	RemovedEventIDs []uuid.UUID            `json:"removed_event_ids,omitempty"`
	HomeScore       int                    `json:"home_score"`
	AwayScore       int                    `json:"away_score"`
	Player          *models.PlayerGameStat `json:"player,omitempty"`
	Team            *models.TeamGameStat   `json:"team,omitempty"`
	FreeThrow       *FreeThrowSequence     `json:"free_throw,omitempty"`
	Prompt          *PendingPrompt         `json:"prompt,omitempty"`
	Duplicate       bool                   `json:"duplicate,omitempty"`
}

// dedupe returns the cached result when the request ID has already been
// applied. Call with the session mutex held.
func (s *session) dedupe(requestID uuid.UUID) (*Delta, bool) {
	if requestID == uuid.Nil {
		return nil, false
	}
	if d, ok := s.applied[requestID]; ok {
		dup := *d
		dup.Duplicate = true
		return &dup, true
	}
	return nil, false
}

// remember records a request ID and its result, evicting the oldest entry
// once the window is full.
func (s *session) remember(requestID uuid.UUID, d *Delta) {
	if requestID == uuid.Nil {
		return
	}
	if old := s.reqRing[s.reqIdx]; old != uuid.Nil {
		delete(s.applied, old)
	}
	s.reqRing[s.reqIdx] = requestID
	s.reqIdx = (s.reqIdx + 1) % dedupeWindow
	s.applied[requestID] = d
}

// append assigns identity and sequence, persists, applies aggregates, and
// fans out. Call with the session mutex held.
func (s *session) append(ctx context.Context, ev models.StatEvent) (models.StatEvent, error) {
	now := s.clk.Now()
	ev.ID = uuid.New()
	ev.GameID = s.game.ID
	ev.Seq = s.seq + 1
	if ev.Quarter == 0 {
		ev.Quarter = s.game.CurrentQuarter
	}
	if ev.GameTime == 0 {
		ev.GameTime = s.gameClock.displayed(now)
	}
	ev.CreatedAt = now

	if err := s.store.Append(ctx, ev); err != nil {
		return models.StatEvent{}, fmt.Errorf("append event: %w", err)
	}
	s.seq = ev.Seq
	s.events = append(s.events, ev)
	s.applyAggregates(&ev, +1)

	if s.sink != nil {
		if err := s.sink.EventAccepted(ctx, ev); err != nil {
			s.log.Error().Err(err).Str("event_id", ev.ID.String()).Msg("event sink rejected accepted event")
		}
	}
	return ev, nil
}

// removeTail removes the most recent events (an undone compound action) from
// the log and reverses their aggregate effects. The events must be the tail
// of the log. Call with the session mutex held.
func (s *session) removeTail(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) > len(s.events) {
		return fmt.Errorf("remove tail: %d events requested, %d in log", len(ids), len(s.events))
	}
	tail := s.events[len(s.events)-len(ids):]
	for i, ev := range tail {
		if ev.ID != ids[i] {
			return fmt.Errorf("remove tail: event %s is not the log tail", ids[i])
		}
	}
	for i := len(tail) - 1; i >= 0; i-- {
		ev := tail[i]
		if err := s.store.Remove(ctx, s.game.ID, ev.ID); err != nil {
			return fmt.Errorf("remove event: %w", err)
		}
		s.applyAggregates(&ev, -1)
		if s.sink != nil {
			if err := s.sink.EventRetracted(ctx, s.game.ID, ev.ID, ev.Seq); err != nil {
				s.log.Error().Err(err).Str("event_id", ev.ID.String()).Msg("event sink rejected retraction")
			}
		}
	}
	s.events = s.events[:len(s.events)-len(tail)]
	return nil
}

// applyAggregates folds one event into (sign=+1) or out of (sign=-1) the
// derived player/team aggregates. Bonus flags are recomputed separately.
func (s *session) applyAggregates(ev *models.StatEvent, sign int) {
	var ps *models.PlayerGameStat
	var ts *models.TeamGameStat
	if ev.PlayerID != nil {
		ps = s.players[*ev.PlayerID]
	}
	if ev.TeamID != nil {
		ts = s.teams[*ev.TeamID]
	}

	pts := ev.Points() * sign
	if pts != 0 {
		if ps != nil {
			ps.Points += pts
		}
		if ts != nil {
			ts.Points += pts
			if ts.TeamID == s.game.HomeTeamID {
				s.game.HomeScore += pts
			} else {
				s.game.AwayScore += pts
			}
		}
	}

	switch ev.Type {
	case models.StatEventShot2Made:
		if ps != nil {
			ps.FieldGoalsMade += sign
		}
	case models.StatEventShot2Missed:
		if ps != nil {
			ps.FieldGoalsMissed += sign
		}
	case models.StatEventShot3Made:
		if ps != nil {
			ps.FieldGoalsMade += sign
			ps.ThreePointersMade += sign
		}
	case models.StatEventShot3Missed:
		if ps != nil {
			ps.FieldGoalsMissed += sign
		}
	case models.StatEventFreeThrow:
		if ps != nil {
			if ev.Meta.Made != nil && *ev.Meta.Made {
				ps.FreeThrowsMade += sign
			} else {
				ps.FreeThrowsMissed += sign
			}
		}
	case models.StatEventRebound:
		if ev.Meta.TeamRebound {
			if ts != nil {
				ts.TeamRebounds += sign
				ts.Rebounds += sign
			}
		} else if ps != nil {
			ps.Rebounds += sign
			if ev.Meta.ReboundKind == models.ReboundOffensive {
				ps.OffensiveRebounds += sign
			}
			if ts != nil {
				ts.Rebounds += sign
			}
		}
	case models.StatEventAssist:
		if ps != nil {
			ps.Assists += sign
		}
		if ts != nil {
			ts.Assists += sign
		}
	case models.StatEventSteal:
		if ps != nil {
			ps.Steals += sign
		}
		if ts != nil {
			ts.Steals += sign
		}
	case models.StatEventBlock:
		if ps != nil {
			ps.Blocks += sign
		}
		if ts != nil {
			ts.Blocks += sign
		}
	case models.StatEventTurnover:
		if ps != nil {
			ps.Turnovers += sign
		}
		if ts != nil {
			ts.Turnovers += sign
		}
	case models.StatEventFoul:
		if ps != nil {
			wasOut := ps.FouledOut
			ps.Fouls += sign
			ps.FouledOut = ps.Fouls >= s.game.Config.PlayerFoulLimit
			if ps.FouledOut {
				ps.OnCourt = false
			} else if sign < 0 && wasOut {
				// Reversing the disqualifying foul; the player was on the
				// floor when it forced them off.
				ps.OnCourt = true
			}
		}
		if ts != nil {
			ts.FoulsTotal += sign
		}
	case models.StatEventTimeout:
		if ts != nil {
			ts.TimeoutsRemaining -= sign
		}
	case models.StatEventSubstitution:
		if ps != nil && ev.Meta.OnCourt != nil {
			if sign > 0 {
				ps.OnCourt = *ev.Meta.OnCourt
			} else {
				ps.OnCourt = !*ev.Meta.OnCourt
			}
		}
	}
}

// refreshBonus recomputes quarter foul counts and bonus flags for both teams
// from the log. Cheap enough to run after every foul append and every undo.
func (s *session) refreshBonus() {
	for tid, ts := range s.teams {
		st := computeBonus(s.events, tid, s.game.CurrentQuarter, s.game.Config)
		ts.FoulsThisQuarter = st.Fouls
		ts.InBonus = st.InBonus
		ts.InDoubleBonus = st.InDoubleBonus
	}
}

// opponentOf returns the other team's ID.
func (s *session) opponentOf(teamID uuid.UUID) uuid.UUID {
	if teamID == s.game.HomeTeamID {
		return s.game.AwayTeamID
	}
	return s.game.HomeTeamID
}

// player returns the stat line for a rostered player or a validation error.
func (s *session) player(id uuid.UUID) (*models.PlayerGameStat, error) {
	ps, ok := s.players[id]
	if !ok {
		return nil, validationf("unknown player %s", id)
	}
	return ps, nil
}

// team returns the stat line for one of the two teams or a validation error.
func (s *session) team(id uuid.UUID) (*models.TeamGameStat, error) {
	ts, ok := s.teams[id]
	if !ok {
		return nil, validationf("unknown team %s", id)
	}
	return ts, nil
}

// requireRecordable gates stat mutations on lifecycle state: the game must be
// active, or paused for a correction.
func (s *session) requireRecordable() error {
	switch s.game.Status {
	case models.GameStatusActive, models.GameStatusPaused:
		return nil
	}
	return stateConflictf("cannot record stats while game is %s", s.game.Status)
}

// persistGame writes lifecycle-owned fields back to the game store.
func (s *session) persistGame(ctx context.Context) error {
	s.game.UpdatedAt = s.clk.Now()
	if err := s.games.UpdateGameState(ctx, s.game); err != nil {
		return fmt.Errorf("persist game state: %w", err)
	}
	return nil
}

// discardPrompt drops a pending prompt, if any.
func (s *session) discardPrompt(kind PromptKind, reason string) {
	if p, ok := s.prompts[kind]; ok {
		delete(s.prompts, kind)
		s.log.Debug().
			Str("kind", string(p.Kind)).
			Str("reason", reason).
			Msg("pending prompt discarded")
	}
}

// supersedePrompts is called when a new authoritative event conflicts with
// outstanding advisory prompts.
func (s *session) supersedePrompts(trigger models.StatEventType) {
	switch trigger {
	case models.StatEventShot2Made, models.StatEventShot2Missed,
		models.StatEventShot3Made, models.StatEventShot3Missed,
		models.StatEventTurnover, models.StatEventSteal:
		s.discardPrompt(PromptAssist, "superseded")
		s.discardPrompt(PromptRebound, "superseded")
	case models.StatEventRebound:
		s.discardPrompt(PromptRebound, "superseded")
	case models.StatEventAssist:
		s.discardPrompt(PromptAssist, "superseded")
	}
}

// baseEvent builds the common fields of a player-attributed event.
func (s *session) baseEvent(typ models.StatEventType, playerID, teamID uuid.UUID) models.StatEvent {
	pid := playerID
	tid := teamID
	return models.StatEvent{
		Type:     typ,
		PlayerID: &pid,
		TeamID:   &tid,
	}
}

// nextDeadline reports the earliest server time at which the session needs
// scheduler attention: shot-clock expiry, violation grace end, prompt expiry,
// or game-clock zero. Zero time means nothing is pending.
func (s *session) nextDeadline(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest time.Time
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}

	if s.shot.running {
		consider(s.shot.expiresAt(now))
		if s.shot.displayed(now) <= 0 {
			consider(now)
		}
	}
	if s.shot.violationPending {
		consider(s.shot.graceDeadline)
	}
	if s.gameClock.running && !s.quarterEndSignaled {
		consider(s.gameClock.expiresAt(now))
		if s.gameClock.displayed(now) <= 0 {
			consider(now)
		}
	}
	for _, p := range s.prompts {
		consider(p.ExpiresAt)
	}
	return earliest
}

// onTick handles due clock and prompt deadlines. Runs in the scheduler
// goroutine; takes the session mutex like any other writer.
func (s *session) onTick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shot.running && s.shot.displayed(now) <= 0 {
		grace := time.Duration(s.game.Config.ViolationGraceSec) * time.Second
		s.shot.expire(now, grace)
		s.log.Info().Msg("shot clock expired, violation pending")
	}

	if s.shot.violationPending && !now.Before(s.shot.graceDeadline) {
		s.shot.clearViolation()
		s.log.Info().Msg("shot clock violation window elapsed without acknowledgement")
	}

	if s.gameClock.running && !s.quarterEndSignaled && s.gameClock.displayed(now) <= 0 {
		s.gameClock.stop(now)
		s.gameClock.remaining = 0
		s.quarterEndSignaled = true
		if _, err := s.append(ctx, models.StatEvent{Type: models.StatEventQuarterEndSignal}); err != nil {
			s.log.Error().Err(err).Msg("failed to append quarter end signal")
		} else {
			s.log.Info().Int("quarter", s.game.CurrentQuarter).Msg("game clock reached zero, quarter end signaled")
		}
	}

	for kind, p := range s.prompts {
		if !now.Before(p.ExpiresAt) {
			delete(s.prompts, kind)
			s.log.Debug().Str("kind", string(kind)).Msg("pending prompt expired")
		}
	}
}
