package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mpratt21/courtside/internal/models"
)

// Engine hosts the live game sessions and routes operations to them by game
// ID. One Engine instance is the scoring authority for every game it hosts.
type Engine struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	clk   clockwork.Clock
	store EventStore
	games GameStore
	sink  EventSink
	log   zerolog.Logger

	wakeCh chan struct{}
}

// New builds an Engine. The sink may be nil when no downstream feed is wired.
func New(clk clockwork.Clock, store EventStore, games GameStore, sink EventSink, logger zerolog.Logger) *Engine {
	return &Engine{
		sessions: make(map[uuid.UUID]*session),
		clk:      clk,
		store:    store,
		games:    games,
		sink:     sink,
		log:      logger,
		wakeCh:   make(chan struct{}, 1),
	}
}

// wake nudges the scheduler loop; a full channel means a wake is already
// pending, which is equivalent.
func (e *Engine) wake() {
	select {
	case e.wakeCh <- struct{}{}:
	default:
	}
}

// LoadGame registers a game with the engine and returns its starting snapshot.
// Loading an already-hosted game is a conflict.
func (e *Engine) LoadGame(ctx context.Context, game *models.Game, lineup []LineupEntry) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sessions[game.ID]; ok {
		return nil, stateConflictf("game %s is already loaded", game.ID)
	}
	s, err := newSession(game, lineup, e.clk, e.store, e.games, e.sink, e.log, e.wake)
	if err != nil {
		return nil, err
	}
	e.sessions[game.ID] = s
	e.log.Info().Str("game_id", game.ID.String()).Int("players", len(lineup)).Msg("game loaded")
	return s.Snapshot(), nil
}

// UnloadGame drops a session from the engine. Completed games are the normal
// case; unloading a live game abandons its ephemeral state.
func (e *Engine) UnloadGame(gameID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[gameID]
	if !ok {
		return ErrGameNotFound
	}
	delete(e.sessions, gameID)
	if s.game.Status != models.GameStatusCompleted {
		e.log.Warn().Str("game_id", gameID.String()).Str("status", string(s.game.Status)).Msg("unloaded game that was not completed")
	} else {
		e.log.Info().Str("game_id", gameID.String()).Msg("game unloaded")
	}
	return nil
}

func (e *Engine) session(gameID uuid.UUID) (*session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return s, nil
}

// GameIDs lists the games currently hosted by this engine.
func (e *Engine) GameIDs() []uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns the authoritative state of a hosted game.
func (e *Engine) Snapshot(gameID uuid.UUID) (*Snapshot, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Events pages through a hosted game's event log.
func (e *Engine) Events(gameID uuid.UUID, afterSeq int64, quarter, limit int) ([]models.StatEvent, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.Events(afterSeq, quarter, limit), nil
}

// Lifecycle operations.

func (e *Engine) StartGame(ctx context.Context, gameID uuid.UUID) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.Start(ctx)
}

func (e *Engine) PauseGame(ctx context.Context, gameID uuid.UUID) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.Pause(ctx)
}

func (e *Engine) ResumeGame(ctx context.Context, gameID uuid.UUID) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.Resume(ctx)
}

func (e *Engine) EndGame(ctx context.Context, gameID uuid.UUID, force bool) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.End(ctx, force)
}

func (e *Engine) ReactivateGame(ctx context.Context, gameID uuid.UUID) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.Reactivate(ctx)
}

func (e *Engine) SetQuarter(ctx context.Context, gameID uuid.UUID, quarter int, resetTime bool) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.SetQuarter(ctx, quarter, resetTime)
}

func (e *Engine) AdvanceQuarter(ctx context.Context, gameID uuid.UUID) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.AdvanceQuarter(ctx)
}

// Clock operations.

func (e *Engine) SetGameTime(ctx context.Context, gameID uuid.UUID, seconds float64) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	return s.SetGameTime(ctx, seconds)
}

func (e *Engine) SetShotClockTime(ctx context.Context, gameID uuid.UUID, seconds float64) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	return s.SetShotClockTime(ctx, seconds)
}

func (e *Engine) ResetShotClock(ctx context.Context, gameID uuid.UUID, seconds int) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	return s.ResetShotClock(ctx, seconds)
}

func (e *Engine) StartShotClock(ctx context.Context, gameID uuid.UUID) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	return s.StartShotClock(ctx)
}

func (e *Engine) StopShotClock(ctx context.Context, gameID uuid.UUID) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	return s.StopShotClock(ctx)
}

func (e *Engine) AcknowledgeViolation(ctx context.Context, gameID, requestID uuid.UUID) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.AcknowledgeViolation(ctx, requestID)
}

// Stat operations.

func (e *Engine) RecordStat(ctx context.Context, gameID uuid.UUID, req RecordStatRequest) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.RecordStat(ctx, req)
}

func (e *Engine) RecordFoul(ctx context.Context, gameID uuid.UUID, requestID uuid.UUID, playerID uuid.UUID, foulType models.FoulType, opts FoulOptions) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.RecordFoul(ctx, requestID, playerID, foulType, opts)
}

func (e *Engine) RecordFreeThrowResult(ctx context.Context, gameID uuid.UUID, requestID uuid.UUID, made bool) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.RecordFreeThrowResult(ctx, requestID, made)
}

func (e *Engine) RecordTeamRebound(ctx context.Context, gameID uuid.UUID, requestID uuid.UUID, teamID uuid.UUID, kind models.ReboundKind) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.RecordTeamRebound(ctx, requestID, teamID, kind)
}

func (e *Engine) RecordTimeout(ctx context.Context, gameID uuid.UUID, requestID uuid.UUID, teamID uuid.UUID) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.RecordTimeout(ctx, requestID, teamID)
}

func (e *Engine) Substitute(ctx context.Context, gameID, requestID, playerID uuid.UUID, onCourt bool) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.Substitute(ctx, requestID, playerID, onCourt)
}

func (e *Engine) UndoStat(ctx context.Context, gameID, requestID, playerID uuid.UUID, statType StatType, wasMade *bool) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.UndoStat(ctx, requestID, playerID, statType, wasMade)
}

func (e *Engine) ResolvePrompt(ctx context.Context, gameID, requestID uuid.UUID, kind PromptKind, choice ResolvePromptChoice) (*Delta, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return s.ResolvePrompt(ctx, requestID, kind, choice)
}

func (e *Engine) DismissPrompt(gameID uuid.UUID, kind PromptKind) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	return s.DismissPrompt(kind)
}
