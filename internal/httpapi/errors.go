package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/mpratt21/courtside/internal/engine"
)

// errorResponse is the JSON body of every rejected request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps the engine's error taxonomy to HTTP statuses. Conflicts are
// 409 so optimistic clients know to resynchronize rather than retry.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string

	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, engine.ErrGameNotFound):
		status, code = http.StatusNotFound, "GAME_NOT_FOUND"
	case errors.Is(err, engine.ErrValidation), errors.As(err, &verr):
		status, code = http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, engine.ErrStaleUndo):
		status, code = http.StatusConflict, "STALE_UNDO"
	case errors.Is(err, engine.ErrSequenceConflict):
		status, code = http.StatusConflict, "SEQUENCE_CONFLICT"
	case errors.Is(err, engine.ErrNoActiveSequence):
		status, code = http.StatusConflict, "NO_ACTIVE_SEQUENCE"
	case errors.Is(err, engine.ErrNoPendingPrompt):
		status, code = http.StatusConflict, "NO_PENDING_PROMPT"
	case errors.Is(err, engine.ErrStateConflict):
		status, code = http.StatusConflict, "STATE_CONFLICT"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL"
		log.Error().Err(err).Msg("internal error serving request")
	}

	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
