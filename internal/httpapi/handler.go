package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mpratt21/courtside/internal/engine"
	"github.com/mpratt21/courtside/internal/models"
)

// GameCreator persists new game records before the engine loads them.
type GameCreator interface {
	CreateGame(ctx context.Context, game *models.Game) error
}

// Handler exposes the scoring authority's write and read surface over HTTP.
// All mutations route to the engine; the engine's Delta (or error) is the
// response body.
type Handler struct {
	engine   *engine.Engine
	games    GameCreator
	presets  map[string]models.GameConfig
	validate *validator.Validate
	log      zerolog.Logger
}

// NewHandler builds the API handler. presets maps rule preset names to
// game configurations; nil falls back to the built-in nba and college rules.
func NewHandler(eng *engine.Engine, games GameCreator, presets map[string]models.GameConfig, logger zerolog.Logger) *Handler {
	if presets == nil {
		presets = map[string]models.GameConfig{
			"nba":     models.DefaultNBAConfig(),
			"college": models.DefaultCollegeConfig(),
		}
	}
	return &Handler{
		engine:   eng,
		games:    games,
		presets:  presets,
		validate: validator.New(),
		log:      logger,
	}
}

// RegisterRoutes wires the API surface onto the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", h.handleCreateGame)

	mux.HandleFunc("POST /api/games/{id}/lifecycle/{action}", h.handleLifecycle)
	mux.HandleFunc("POST /api/games/{id}/quarter", h.handleQuarter)

	mux.HandleFunc("POST /api/games/{id}/clock/game", h.handleSetGameClock)
	mux.HandleFunc("POST /api/games/{id}/clock/shot", h.handleSetShotClock)
	mux.HandleFunc("POST /api/games/{id}/clock/shot/reset", h.handleResetShotClock)
	mux.HandleFunc("POST /api/games/{id}/clock/shot/start", h.handleStartShotClock)
	mux.HandleFunc("POST /api/games/{id}/clock/shot/stop", h.handleStopShotClock)
	mux.HandleFunc("POST /api/games/{id}/clock/violation", h.handleAcknowledgeViolation)

	mux.HandleFunc("POST /api/games/{id}/stats", h.handleRecordStat)
	mux.HandleFunc("POST /api/games/{id}/stats/undo", h.handleUndoStat)
	mux.HandleFunc("POST /api/games/{id}/fouls", h.handleRecordFoul)
	mux.HandleFunc("POST /api/games/{id}/freethrows", h.handleFreeThrowResult)
	mux.HandleFunc("POST /api/games/{id}/rebounds/team", h.handleTeamRebound)
	mux.HandleFunc("POST /api/games/{id}/timeouts", h.handleTimeout)
	mux.HandleFunc("POST /api/games/{id}/substitutions", h.handleSubstitution)
	mux.HandleFunc("POST /api/games/{id}/prompts/{kind}/resolve", h.handleResolvePrompt)
	mux.HandleFunc("POST /api/games/{id}/prompts/{kind}/dismiss", h.handleDismissPrompt)

	mux.HandleFunc("GET /api/games/{id}/snapshot", h.handleSnapshot)
	mux.HandleFunc("GET /api/games/{id}/stats", h.handleStats)
	mux.HandleFunc("GET /api/games/{id}/events", h.handleEvents)
}

// decode unmarshals and validates a request body.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %s", engine.ErrValidation, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

func gameID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid game id", engine.ErrValidation)
	}
	return id, nil
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg := models.DefaultNBAConfig()
	switch {
	case req.Config != nil:
		cfg = *req.Config
	case req.RulePreset != "":
		preset, ok := h.presets[req.RulePreset]
		if !ok {
			writeError(w, fmt.Errorf("%w: unknown rule preset %q", engine.ErrValidation, req.RulePreset))
			return
		}
		cfg = preset
	}

	now := time.Now().UTC()
	game := &models.Game{
		ID:             uuid.New(),
		HomeTeamID:     req.HomeTeamID,
		AwayTeamID:     req.AwayTeamID,
		Status:         models.GameStatusScheduled,
		CurrentQuarter: 1,
		Config:         cfg,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.games.CreateGame(r.Context(), game); err != nil {
		writeError(w, err)
		return
	}

	lineup := make([]engine.LineupEntry, len(req.Lineup))
	for i, le := range req.Lineup {
		lineup[i] = engine.LineupEntry{PlayerID: le.PlayerID, TeamID: le.TeamID, OnCourt: le.OnCourt}
	}
	snap, err := h.engine.LoadGame(r.Context(), game, lineup)
	if err != nil {
		writeError(w, err)
		return
	}
	h.log.Info().Str("game_id", game.ID.String()).Msg("game created")
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var delta *engine.Delta
	switch action := r.PathValue("action"); action {
	case "start":
		delta, err = h.engine.StartGame(r.Context(), id)
	case "pause":
		delta, err = h.engine.PauseGame(r.Context(), id)
	case "resume":
		delta, err = h.engine.ResumeGame(r.Context(), id)
	case "end":
		var req endGameRequest
		if r.ContentLength > 0 {
			if derr := h.decode(r, &req); derr != nil {
				writeError(w, derr)
				return
			}
		}
		delta, err = h.engine.EndGame(r.Context(), id, req.Force)
	case "reactivate":
		delta, err = h.engine.ReactivateGame(r.Context(), id)
	default:
		writeError(w, fmt.Errorf("%w: unknown lifecycle action %q", engine.ErrValidation, action))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleQuarter(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req setQuarterRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var delta *engine.Delta
	if req.Advance {
		delta, err = h.engine.AdvanceQuarter(r.Context(), id)
	} else {
		delta, err = h.engine.SetQuarter(r.Context(), id, req.Quarter, req.ResetTime)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleSetGameClock(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req clockTimeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.SetGameTime(r.Context(), id, req.Seconds); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.engine.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleSetShotClock(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req clockTimeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.SetShotClockTime(r.Context(), id, req.Seconds); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.engine.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleResetShotClock(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req shotClockResetRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.ResetShotClock(r.Context(), id, req.Seconds); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.engine.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleStartShotClock(w http.ResponseWriter, r *http.Request) {
	h.shotClockToggle(w, r, h.engine.StartShotClock)
}

func (h *Handler) handleStopShotClock(w http.ResponseWriter, r *http.Request) {
	h.shotClockToggle(w, r, h.engine.StopShotClock)
}

func (h *Handler) shotClockToggle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) error) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.engine.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleAcknowledgeViolation(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req acknowledgeViolationRequest
	if r.ContentLength > 0 {
		if err := h.decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	delta, err := h.engine.AcknowledgeViolation(r.Context(), id, req.RequestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleRecordStat(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req recordStatRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.RecordStat(r.Context(), id, engine.RecordStatRequest{
		RequestID:   req.RequestID,
		PlayerID:    req.PlayerID,
		Type:        req.Type,
		Made:        req.Made,
		ReboundKind: req.ReboundKind,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleUndoStat(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req undoStatRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.UndoStat(r.Context(), id, req.RequestID, req.PlayerID, req.Type, req.Made)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleRecordFoul(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req recordFoulRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.RecordFoul(r.Context(), id, req.RequestID, req.PlayerID, req.FoulType, engine.FoulOptions{
		ShotPoints:     req.ShotPoints,
		AndOne:         req.AndOne,
		FouledPlayerID: req.FouledPlayerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleFreeThrowResult(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req freeThrowResultRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.RecordFreeThrowResult(r.Context(), id, req.RequestID, *req.Made)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleTeamRebound(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req teamReboundRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.RecordTeamRebound(r.Context(), id, req.RequestID, req.TeamID, req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleTimeout(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req timeoutRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.RecordTimeout(r.Context(), id, req.RequestID, req.TeamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleSubstitution(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req substitutionRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.Substitute(r.Context(), id, req.RequestID, req.PlayerID, *req.OnCourt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func promptKind(r *http.Request) (engine.PromptKind, error) {
	switch r.PathValue("kind") {
	case "assist":
		return engine.PromptAssist, nil
	case "rebound":
		return engine.PromptRebound, nil
	}
	return "", fmt.Errorf("%w: unknown prompt kind %q", engine.ErrValidation, r.PathValue("kind"))
}

func (h *Handler) handleResolvePrompt(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	kind, err := promptKind(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req resolvePromptRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	delta, err := h.engine.ResolvePrompt(r.Context(), id, req.RequestID, kind, engine.ResolvePromptChoice{
		PlayerID:    req.PlayerID,
		TeamRebound: req.TeamRebound,
		TeamID:      req.TeamID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (h *Handler) handleDismissPrompt(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	kind, err := promptKind(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.engine.DismissPrompt(id, kind); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.engine.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.engine.Snapshot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":    snap.Game.ID,
		"seq":        snap.Seq,
		"home_score": snap.Game.HomeScore,
		"away_score": snap.Game.AwayScore,
		"teams":      snap.Teams,
		"players":    snap.Players,
	})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	afterSeq := queryInt64(r, "after_seq")
	quarter := int(queryInt64(r, "quarter"))
	limit := int(queryInt64(r, "limit"))

	evs, err := h.engine.Events(id, afterSeq, quarter, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": id,
		"events":  evs,
	})
}

func queryInt64(r *http.Request, key string) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
