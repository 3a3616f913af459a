package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus defines the lifecycle status of a game.
type GameStatus string

const (
	GameStatusScheduled GameStatus = "SCHEDULED"
	GameStatusActive    GameStatus = "ACTIVE"
	GameStatusPaused    GameStatus = "PAUSED"
	GameStatusCompleted GameStatus = "COMPLETED"
)

// BonusMode selects the team-foul bonus rule set.
type BonusMode string

const (
	BonusModeNBA     BonusMode = "NBA"
	BonusModeCollege BonusMode = "COLLEGE"
)

// RegulationQuarters is the number of periods before overtime.
const RegulationQuarters = 4

// GameConfig holds JSONB rule configuration for a game.
type GameConfig struct {
	QuarterLengthSec  int       `json:"quarter_length_sec" yaml:"quarter_length_sec"`
	OvertimeLengthSec int       `json:"overtime_length_sec" yaml:"overtime_length_sec"`
	ShotClockSec      int       `json:"shot_clock_sec" yaml:"shot_clock_sec"`
	ShotClockResetSec int       `json:"shot_clock_reset_sec" yaml:"shot_clock_reset_sec"` // offensive-rebound reset
	PlayerFoulLimit   int       `json:"player_foul_limit" yaml:"player_foul_limit"`
	BonusMode         BonusMode `json:"bonus_mode" yaml:"bonus_mode"`
	TimeoutsPerTeam   int       `json:"timeouts_per_team" yaml:"timeouts_per_team"`
	CarryBonusToOT    bool      `json:"carry_bonus_to_ot,omitempty" yaml:"carry_bonus_to_ot"`
	ViolationGraceSec int       `json:"violation_grace_sec,omitempty" yaml:"violation_grace_sec"`
	PromptWindowSec   int       `json:"prompt_window_sec,omitempty" yaml:"prompt_window_sec"`
}

// DefaultNBAConfig returns standard NBA rule configuration.
func DefaultNBAConfig() GameConfig {
	return GameConfig{
		QuarterLengthSec:  12 * 60,
		OvertimeLengthSec: 5 * 60,
		ShotClockSec:      24,
		ShotClockResetSec: 14,
		PlayerFoulLimit:   6,
		BonusMode:         BonusModeNBA,
		TimeoutsPerTeam:   7,
		CarryBonusToOT:    true,
		ViolationGraceSec: 10,
		PromptWindowSec:   20,
	}
}

// DefaultCollegeConfig returns standard college rule configuration.
func DefaultCollegeConfig() GameConfig {
	return GameConfig{
		QuarterLengthSec:  10 * 60,
		OvertimeLengthSec: 5 * 60,
		ShotClockSec:      30,
		ShotClockResetSec: 20,
		PlayerFoulLimit:   5,
		BonusMode:         BonusModeCollege,
		TimeoutsPerTeam:   4,
		ViolationGraceSec: 10,
		PromptWindowSec:   20,
	}
}

// Game represents a tracked game instance.
type Game struct {
	ID             uuid.UUID  `json:"id"`
	HomeTeamID     uuid.UUID  `json:"home_team_id"`
	AwayTeamID     uuid.UUID  `json:"away_team_id"`
	Status         GameStatus `json:"status"`
	CurrentQuarter int        `json:"current_quarter"` // 1..4, overtime periods 5+
	HomeScore      int        `json:"home_score"`
	AwayScore      int        `json:"away_score"`
	Config         GameConfig `json:"config"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsOvertime reports whether the given quarter is an overtime period.
func IsOvertime(quarter int) bool {
	return quarter > RegulationQuarters
}
