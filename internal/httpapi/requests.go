package httpapi

import (
	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/engine"
	"github.com/mpratt21/courtside/internal/models"
)

// Request bodies for the write surface. Every mutating request carries an
// optional client-generated request_id; retries with the same ID return the
// original result instead of double-applying.

type createGameRequest struct {
	HomeTeamID uuid.UUID          `json:"home_team_id" validate:"required"`
	AwayTeamID uuid.UUID          `json:"away_team_id" validate:"required"`
	RulePreset string             `json:"rule_preset"`
	Config     *models.GameConfig `json:"config"`
	Lineup     []lineupEntry      `json:"lineup" validate:"required,min=10,dive"`
}

type lineupEntry struct {
	PlayerID uuid.UUID `json:"player_id" validate:"required"`
	TeamID   uuid.UUID `json:"team_id" validate:"required"`
	OnCourt  bool      `json:"on_court"`
}

type endGameRequest struct {
	Force bool `json:"force"`
}

type setQuarterRequest struct {
	Quarter   int  `json:"quarter" validate:"omitempty,min=1,max=20"`
	Advance   bool `json:"advance"`
	ResetTime bool `json:"reset_time"`
}

type clockTimeRequest struct {
	Seconds float64 `json:"seconds" validate:"min=0"`
}

type shotClockResetRequest struct {
	Seconds int `json:"seconds" validate:"required,min=1"`
}

type acknowledgeViolationRequest struct {
	RequestID uuid.UUID `json:"request_id"`
}

type recordStatRequest struct {
	RequestID   uuid.UUID          `json:"request_id"`
	PlayerID    uuid.UUID          `json:"player_id" validate:"required"`
	Type        engine.StatType    `json:"type" validate:"required"`
	Made        bool               `json:"made"`
	ReboundKind models.ReboundKind `json:"rebound_kind" validate:"omitempty,oneof=OFFENSIVE DEFENSIVE"`
}

type undoStatRequest struct {
	RequestID uuid.UUID       `json:"request_id"`
	PlayerID  uuid.UUID       `json:"player_id"`
	Type      engine.StatType `json:"type" validate:"required"`
	Made      *bool           `json:"made"`
}

type recordFoulRequest struct {
	RequestID      uuid.UUID       `json:"request_id"`
	PlayerID       uuid.UUID       `json:"player_id" validate:"required"`
	FoulType       models.FoulType `json:"foul_type" validate:"required,oneof=PERSONAL SHOOTING TECHNICAL FLAGRANT"`
	ShotPoints     int             `json:"shot_points" validate:"omitempty,oneof=2 3"`
	AndOne         bool            `json:"and_one"`
	FouledPlayerID uuid.UUID       `json:"fouled_player_id"`
}

type freeThrowResultRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	Made      *bool     `json:"made" validate:"required"`
}

type teamReboundRequest struct {
	RequestID uuid.UUID          `json:"request_id"`
	TeamID    uuid.UUID          `json:"team_id" validate:"required"`
	Kind      models.ReboundKind `json:"kind" validate:"required,oneof=OFFENSIVE DEFENSIVE"`
}

type timeoutRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	TeamID    uuid.UUID `json:"team_id" validate:"required"`
}

type substitutionRequest struct {
	RequestID uuid.UUID `json:"request_id"`
	PlayerID  uuid.UUID `json:"player_id" validate:"required"`
	OnCourt   *bool     `json:"on_court" validate:"required"`
}

type resolvePromptRequest struct {
	RequestID   uuid.UUID `json:"request_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	TeamRebound bool      `json:"team_rebound"`
	TeamID      uuid.UUID `json:"team_id"`
}
