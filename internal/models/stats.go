package models

import "github.com/google/uuid"

// PlayerGameStat is the derived per-player aggregate for one game. It is
// recomputable from the event log and never mutated directly by callers.
type PlayerGameStat struct {
	PlayerID          uuid.UUID `json:"player_id"`
	TeamID            uuid.UUID `json:"team_id"`
	Points            int       `json:"points"`
	FieldGoalsMade    int       `json:"field_goals_made"`
	FieldGoalsMissed  int       `json:"field_goals_missed"`
	ThreePointersMade int       `json:"three_pointers_made"`
	FreeThrowsMade    int       `json:"free_throws_made"`
	FreeThrowsMissed  int       `json:"free_throws_missed"`
	Rebounds          int       `json:"rebounds"`
	OffensiveRebounds int       `json:"offensive_rebounds"`
	Assists           int       `json:"assists"`
	Steals            int       `json:"steals"`
	Blocks            int       `json:"blocks"`
	Turnovers         int       `json:"turnovers"`
	Fouls             int       `json:"fouls"`
	OnCourt           bool      `json:"on_court"`
	FouledOut         bool      `json:"fouled_out"`
}

// TeamGameStat is the derived per-team aggregate for one game.
type TeamGameStat struct {
	TeamID            uuid.UUID `json:"team_id"`
	Points            int       `json:"points"`
	Rebounds          int       `json:"rebounds"`
	TeamRebounds      int       `json:"team_rebounds"`
	Assists           int       `json:"assists"`
	Steals            int       `json:"steals"`
	Blocks            int       `json:"blocks"`
	Turnovers         int       `json:"turnovers"`
	FoulsThisQuarter  int       `json:"fouls_this_quarter"`
	FoulsTotal        int       `json:"fouls_total"`
	TimeoutsRemaining int       `json:"timeouts_remaining"`
	InBonus           bool      `json:"in_bonus"`
	InDoubleBonus     bool      `json:"in_double_bonus"`
}
