package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mpratt21/courtside/internal/models"
)

func foulEvent(teamID uuid.UUID, quarter int, ft models.FoulType) models.StatEvent {
	tid := teamID
	ev := models.StatEvent{Type: models.StatEventFoul, TeamID: &tid, Quarter: quarter}
	ev.Meta.FoulType = ft
	return ev
}

func foulEvents(teamID uuid.UUID, quarter, n int) []models.StatEvent {
	out := make([]models.StatEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, foulEvent(teamID, quarter, models.FoulPersonal))
	}
	return out
}

func TestBonusThresholds(t *testing.T) {
	bonus, double := bonusThresholds(models.BonusModeNBA)
	require.Equal(t, 5, bonus)
	require.Zero(t, double)

	bonus, double = bonusThresholds(models.BonusModeCollege)
	require.Equal(t, 7, bonus)
	require.Equal(t, 10, double)
}

func TestComputeBonusNBA(t *testing.T) {
	team := uuid.New()
	cfg := models.DefaultNBAConfig()

	st := computeBonus(foulEvents(team, 1, 4), team, 1, cfg)
	require.Equal(t, 4, st.Fouls)
	require.False(t, st.InBonus)

	st = computeBonus(foulEvents(team, 1, 5), team, 1, cfg)
	require.True(t, st.InBonus)
	require.False(t, st.InDoubleBonus)
	require.False(t, st.OneAndOne)
}

func TestComputeBonusCollege(t *testing.T) {
	team := uuid.New()
	cfg := models.DefaultCollegeConfig()

	st := computeBonus(foulEvents(team, 1, 7), team, 1, cfg)
	require.True(t, st.InBonus)
	require.False(t, st.InDoubleBonus)
	require.True(t, st.OneAndOne)

	st = computeBonus(foulEvents(team, 1, 10), team, 1, cfg)
	require.True(t, st.InBonus)
	require.True(t, st.InDoubleBonus)
	require.False(t, st.OneAndOne)
}

func TestTeamFoulsResetEachQuarter(t *testing.T) {
	team := uuid.New()
	cfg := models.DefaultNBAConfig()

	log := foulEvents(team, 1, 5)
	st := computeBonus(log, team, 2, cfg)
	require.Zero(t, st.Fouls)
	require.False(t, st.InBonus)
}

func TestTechnicalFoulsStayOutOfTeamCount(t *testing.T) {
	team := uuid.New()
	cfg := models.DefaultNBAConfig()

	log := foulEvents(team, 1, 4)
	log = append(log, foulEvent(team, 1, models.FoulTechnical))

	st := computeBonus(log, team, 1, cfg)
	require.Equal(t, 4, st.Fouls)
	require.False(t, st.InBonus)
}

func TestCarryBonusToOvertime(t *testing.T) {
	team := uuid.New()

	withCarry := models.DefaultNBAConfig() // CarryBonusToOT set
	log := foulEvents(team, 4, 5)
	log = append(log, foulEvents(team, 5, 1)...)

	st := computeBonus(log, team, 5, withCarry)
	require.Equal(t, 6, st.Fouls)
	require.True(t, st.InBonus)

	noCarry := withCarry
	noCarry.CarryBonusToOT = false
	st = computeBonus(log, team, 5, noCarry)
	require.Equal(t, 1, st.Fouls)
	require.False(t, st.InBonus)
}

func TestCarryDoesNotLeakIntoRegulation(t *testing.T) {
	team := uuid.New()
	cfg := models.DefaultNBAConfig()

	// Third-quarter fouls never count in the fourth, carry or not.
	log := foulEvents(team, 3, 5)
	st := computeBonus(log, team, 4, cfg)
	require.Zero(t, st.Fouls)
}

func TestPlayerFouls(t *testing.T) {
	player := uuid.New()
	team := uuid.New()

	pid := player
	ev := foulEvent(team, 1, models.FoulPersonal)
	ev.PlayerID = &pid

	log := []models.StatEvent{ev, ev, foulEvent(team, 1, models.FoulPersonal)}
	require.Equal(t, 2, playerFouls(log, player))
	require.Zero(t, playerFouls(log, uuid.New()))
}
