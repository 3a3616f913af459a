package engine

import (
	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/models"
)

// bonusState is the derived team-foul standing for one team in the current
// quarter. It is a pure fold over the event log, so recomputation after any
// append or undo is idempotent.
type bonusState struct {
	Fouls         int
	InBonus       bool
	InDoubleBonus bool
	OneAndOne     bool
}

// bonusThresholds returns the team-foul counts at which bonus and double
// bonus begin for the mode. NBA has no double bonus (returned as 0).
func bonusThresholds(mode models.BonusMode) (bonus, double int) {
	switch mode {
	case models.BonusModeCollege:
		return 7, 10
	default:
		return 5, 0
	}
}

// countsTowardTeamFouls reports whether a foul type adds to the quarter's
// team-foul total. Technical fouls award free throws directly and stay out of
// the bonus count.
func countsTowardTeamFouls(ft models.FoulType) bool {
	switch ft {
	case models.FoulPersonal, models.FoulShooting, models.FoulFlagrant:
		return true
	}
	return false
}

// teamFoulsInQuarter folds foul events for one team. With CarryBonusToOT set,
// overtime periods inherit the regulation-final-quarter count, so a team in
// the bonus at the end of the fourth quarter stays in the bonus through
// overtime.
func teamFoulsInQuarter(log []models.StatEvent, teamID uuid.UUID, quarter int, cfg models.GameConfig) int {
	countsIn := func(q int) bool {
		if q == quarter {
			return true
		}
		return cfg.CarryBonusToOT && models.IsOvertime(quarter) && q >= models.RegulationQuarters && q < quarter
	}

	n := 0
	for i := range log {
		ev := &log[i]
		if ev.Type != models.StatEventFoul || ev.TeamID == nil || *ev.TeamID != teamID {
			continue
		}
		if !countsIn(ev.Quarter) || !countsTowardTeamFouls(ev.Meta.FoulType) {
			continue
		}
		n++
	}
	return n
}

// computeBonus derives the bonus standing for a team in the current quarter.
func computeBonus(log []models.StatEvent, teamID uuid.UUID, quarter int, cfg models.GameConfig) bonusState {
	fouls := teamFoulsInQuarter(log, teamID, quarter, cfg)
	bonus, double := bonusThresholds(cfg.BonusMode)

	st := bonusState{Fouls: fouls}
	st.InBonus = fouls >= bonus
	if double > 0 {
		st.InDoubleBonus = fouls >= double
	}
	// One-and-one applies between the bonus and double-bonus thresholds in
	// college mode. NBA mode never awards one-and-one.
	st.OneAndOne = cfg.BonusMode == models.BonusModeCollege && st.InBonus && !st.InDoubleBonus
	return st
}

// playerFouls counts all fouls charged to a player across the game.
func playerFouls(log []models.StatEvent, playerID uuid.UUID) int {
	n := 0
	for i := range log {
		ev := &log[i]
		if ev.Type == models.StatEventFoul && ev.PlayerID != nil && *ev.PlayerID == playerID {
			n++
		}
	}
	return n
}
