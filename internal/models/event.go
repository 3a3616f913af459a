package models

import (
	"time"

	"github.com/google/uuid"
)

// StatEventType identifies the kind of a recorded game action.
type StatEventType string

const (
	StatEventShot2Made    StatEventType = "SHOT2_MADE"
	StatEventShot2Missed  StatEventType = "SHOT2_MISSED"
	StatEventShot3Made    StatEventType = "SHOT3_MADE"
	StatEventShot3Missed  StatEventType = "SHOT3_MISSED"
	StatEventFreeThrow    StatEventType = "FREE_THROW"
	StatEventRebound      StatEventType = "REBOUND"
	StatEventAssist       StatEventType = "ASSIST"
	StatEventSteal        StatEventType = "STEAL"
	StatEventBlock        StatEventType = "BLOCK"
	StatEventTurnover     StatEventType = "TURNOVER"
	StatEventFoul         StatEventType = "FOUL"
	StatEventTimeout      StatEventType = "TIMEOUT"
	StatEventSubstitution StatEventType = "SUBSTITUTION"

	// Lifecycle markers appended by the lifecycle controller for audit and
	// elapsed-time computation. They carry no player attribution.
	StatEventGameStarted     StatEventType = "GAME_STARTED"
	StatEventGamePaused      StatEventType = "GAME_PAUSED"
	StatEventGameResumed     StatEventType = "GAME_RESUMED"
	StatEventGameEnded       StatEventType = "GAME_ENDED"
	StatEventGameReactivated StatEventType = "GAME_REACTIVATED"
	StatEventQuarterAdvanced StatEventType = "QUARTER_ADVANCED"
	StatEventQuarterEndSignal StatEventType = "QUARTER_END_SIGNAL"
	StatEventShotClockViolation StatEventType = "SHOT_CLOCK_VIOLATION"
)

// FoulType tags a foul event.
type FoulType string

const (
	FoulPersonal  FoulType = "PERSONAL"
	FoulShooting  FoulType = "SHOOTING"
	FoulTechnical FoulType = "TECHNICAL"
	FoulFlagrant  FoulType = "FLAGRANT"
)

// ReboundKind distinguishes rebound attribution.
type ReboundKind string

const (
	ReboundOffensive ReboundKind = "OFFENSIVE"
	ReboundDefensive ReboundKind = "DEFENSIVE"
)

// EventMeta carries type-specific detail inside a StatEvent. Exactly the
// fields relevant to the event type are set; the rest stay zero.
type EventMeta struct {
	Made        *bool       `json:"made,omitempty"`         // shots, free throws
	FoulType    FoulType    `json:"foul_type,omitempty"`    // fouls
	ShotPoints  int         `json:"shot_points,omitempty"`  // shooting fouls: fouled shot value
	AndOne      bool        `json:"and_one,omitempty"`      // shooting fouls on a made basket
	OneAndOne   bool        `json:"one_and_one,omitempty"`  // bonus free throws, college mode
	Attempt     int         `json:"attempt,omitempty"`      // free throws: attempt ordinal
	OfAttempts  int         `json:"of_attempts,omitempty"`  // free throws: sequence length
	ReboundKind ReboundKind `json:"rebound_kind,omitempty"` // rebounds
	TeamRebound bool        `json:"team_rebound,omitempty"` // team (dead-ball) rebounds
	OnCourt     *bool       `json:"on_court,omitempty"`     // substitutions
	ViolationAt float64     `json:"violation_at,omitempty"` // shot clock violations: game time
}

// StatEvent is one immutable entry of the append-only game log. All scores
// and statistics are folds over the event sequence.
type StatEvent struct {
	ID       uuid.UUID     `json:"id"`
	GameID   uuid.UUID     `json:"game_id"`
	Seq      int64         `json:"seq"` // per-game, assigned by the authority in apply order
	PlayerID *uuid.UUID    `json:"player_id,omitempty"`
	TeamID   *uuid.UUID    `json:"team_id,omitempty"`
	Quarter  int           `json:"quarter"`
	GameTime float64       `json:"game_time"` // seconds remaining on the game clock
	Type     StatEventType `json:"type"`
	Meta     EventMeta     `json:"meta"`
	CreatedAt time.Time    `json:"created_at"`
}

// Points returns the score value of the event, zero for non-scoring events.
func (e *StatEvent) Points() int {
	switch e.Type {
	case StatEventShot2Made:
		return 2
	case StatEventShot3Made:
		return 3
	case StatEventFreeThrow:
		if e.Meta.Made != nil && *e.Meta.Made {
			return 1
		}
	}
	return 0
}

// IsLifecycleMarker reports whether the event is a lifecycle audit marker
// rather than a player or team statistic.
func (e *StatEvent) IsLifecycleMarker() bool {
	switch e.Type {
	case StatEventGameStarted, StatEventGamePaused, StatEventGameResumed,
		StatEventGameEnded, StatEventGameReactivated, StatEventQuarterAdvanced,
		StatEventQuarterEndSignal, StatEventShotClockViolation:
		return true
	}
	return false
}
