package engine

import (
	"github.com/google/uuid"
)

// FreeThrowSequence is the short-lived sub-state-machine between a shooting
// foul and the resolution of its last attempt. It is ephemeral: individual
// attempts land in the event log as they resolve, the sequence itself does
// not. Exactly one sequence may be active per game.
type FreeThrowSequence struct {
	PlayerID      uuid.UUID `json:"player_id"`
	TeamID        uuid.UUID `json:"team_id"`
	TotalAttempts int       `json:"total_attempts"`
	CurrentAttempt int      `json:"current_attempt"` // 1-based, next attempt to shoot
	IsOneAndOne   bool      `json:"is_one_and_one"`
	Results       []bool    `json:"results"`
}

// newFreeThrowSequence derives the attempt count from the foul context:
// a foul on a missed 2pt shot awards 2, on a missed 3pt shot 3, an and-one 1.
// A bonus (non-shooting) foul awards 2, or a one-and-one in college mode where
// the second attempt exists only once the first is made.
func newFreeThrowSequence(playerID, teamID uuid.UUID, shotPoints int, andOne, oneAndOne bool) *FreeThrowSequence {
	seq := &FreeThrowSequence{
		PlayerID:       playerID,
		TeamID:         teamID,
		CurrentAttempt: 1,
	}
	switch {
	case andOne:
		seq.TotalAttempts = 1
	case shotPoints == 3:
		seq.TotalAttempts = 3
	case shotPoints == 2:
		seq.TotalAttempts = 2
	case oneAndOne:
		seq.TotalAttempts = 1
		seq.IsOneAndOne = true
	default:
		// Non-shooting foul in the bonus (or a technical): two attempts.
		seq.TotalAttempts = 2
	}
	return seq
}

// clone copies the sequence, including the results slice, so undo can restore
// the pre-attempt state after recordAttempt mutates it.
func (s *FreeThrowSequence) clone() *FreeThrowSequence {
	cp := *s
	cp.Results = append([]bool(nil), s.Results...)
	return &cp
}

// recordAttempt advances the sequence by one resolved attempt and reports
// whether the sequence has ended and, if so, whether the final attempt was a
// miss (which opens the rebound).
func (s *FreeThrowSequence) recordAttempt(made bool) (done bool, finalMissed bool) {
	s.Results = append(s.Results, made)

	if s.IsOneAndOne && s.CurrentAttempt == 1 {
		if !made {
			// Front end of the one-and-one missed: sequence over, live ball.
			return true, true
		}
		// Front end made: the second attempt is now granted.
		s.TotalAttempts = 2
	}

	if s.CurrentAttempt >= s.TotalAttempts {
		return true, !made
	}
	s.CurrentAttempt++
	return false, false
}
