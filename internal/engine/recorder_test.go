package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mpratt21/courtside/internal/models"
)

func TestRecordMadeShotScoresAndPrompts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	d, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot3,
		Made:     true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, d.HomeScore)
	require.Zero(t, d.AwayScore)
	require.Equal(t, 3, d.Player.Points)
	require.Equal(t, 1, d.Player.FieldGoalsMade)
	require.Equal(t, 1, d.Player.ThreePointersMade)
	require.NotNil(t, d.Prompt)
	require.Equal(t, PromptAssist, d.Prompt.Kind)
	require.Equal(t, f.homePlayers[0], *d.Prompt.ScorerID)
}

func TestRecordMissedShotOpensReboundPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	d, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.awayPlayers[0],
		Type:     StatShot2,
		Made:     false,
	})
	require.NoError(t, err)
	require.Zero(t, d.AwayScore)
	require.Equal(t, 1, d.Player.FieldGoalsMissed)
	require.NotNil(t, d.Prompt)
	require.Equal(t, PromptRebound, d.Prompt.Kind)
	require.Equal(t, f.away, *d.Prompt.ShooterTeamID)
}

func TestRecordStatValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: uuid.New(),
		Type:     StatShot2,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatType("DUNK_RATING"),
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatRebound,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRequestDeduplication(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	reqID := uuid.New()
	req := RecordStatRequest{RequestID: reqID, PlayerID: f.homePlayers[0], Type: StatShot2, Made: true}

	first, err := f.eng.RecordStat(ctx, f.game.ID, req)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := f.eng.RecordStat(ctx, f.game.ID, req)
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.Seq, second.Seq)

	// The retry appended nothing: start marker plus one shot.
	n, err := f.store.CountByGame(ctx, f.game.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestOffensiveReboundShortResetsShotClock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)
	require.NoError(t, f.eng.StartShotClock(ctx, f.game.ID))

	f.clk.Advance(10 * time.Second)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID:    f.homePlayers[1],
		Type:        StatRebound,
		ReboundKind: models.ReboundOffensive,
	})
	require.NoError(t, err)

	snap, _ := f.eng.Snapshot(f.game.ID)
	require.InDelta(t, 14, snap.ShotClock.Display, 0.001)
	require.True(t, snap.ShotClock.Running)

	_, err = f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID:    f.awayPlayers[1],
		Type:        StatRebound,
		ReboundKind: models.ReboundDefensive,
	})
	require.NoError(t, err)

	snap, _ = f.eng.Snapshot(f.game.ID)
	require.InDelta(t, 24, snap.ShotClock.Display, 0.001)
}

func TestShotSupersedesPendingPrompts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot2,
		Made:     false,
	})
	require.NoError(t, err)

	// A new shot makes the rebound advisory stale.
	_, err = f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.awayPlayers[0],
		Type:     StatShot2,
		Made:     true,
	})
	require.NoError(t, err)

	err = f.eng.DismissPrompt(f.game.ID, PromptRebound)
	require.ErrorIs(t, err, ErrNoPendingPrompt)
	require.NoError(t, f.eng.DismissPrompt(f.game.ID, PromptAssist))
}

func TestResolveAssistPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot2,
		Made:     true,
	})
	require.NoError(t, err)

	d, err := f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptAssist, ResolvePromptChoice{
		PlayerID: f.homePlayers[1],
	})
	require.NoError(t, err)
	require.Equal(t, models.StatEventAssist, d.Events[0].Type)
	require.Equal(t, 1, d.Player.Assists)

	// The prompt is consumed.
	_, err = f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptAssist, ResolvePromptChoice{PlayerID: f.homePlayers[2]})
	require.ErrorIs(t, err, ErrNoPendingPrompt)
}

func TestResolveReboundPromptClassifiesKind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot2,
		Made:     false,
	})
	require.NoError(t, err)

	// A rebounder from the shooting team gets an offensive board.
	d, err := f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptRebound, ResolvePromptChoice{
		PlayerID: f.homePlayers[1],
	})
	require.NoError(t, err)
	require.Equal(t, models.ReboundOffensive, d.Events[0].Meta.ReboundKind)
	require.Equal(t, 1, d.Player.OffensiveRebounds)
}

func TestResolveReboundPromptAsTeamRebound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot2,
		Made:     false,
	})
	require.NoError(t, err)

	d, err := f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptRebound, ResolvePromptChoice{
		TeamRebound: true,
		TeamID:      f.away,
	})
	require.NoError(t, err)
	require.True(t, d.Events[0].Meta.TeamRebound)
	require.Equal(t, models.ReboundDefensive, d.Events[0].Meta.ReboundKind)
	require.Equal(t, 1, d.Team.TeamRebounds)
}

func TestFoulEntersBonusAtThreshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	for i := 0; i < 4; i++ {
		d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[i], models.FoulPersonal, FoulOptions{})
		require.NoError(t, err)
		require.Nil(t, d.FreeThrow)
		require.False(t, d.Team.InBonus)
	}

	// The fifth team foul puts the opponent in the bonus: two attempts.
	d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[4], models.FoulPersonal, FoulOptions{
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)
	require.True(t, d.Team.InBonus)
	require.NotNil(t, d.FreeThrow)
	require.Equal(t, 2, d.FreeThrow.TotalAttempts)
	require.False(t, d.FreeThrow.IsOneAndOne)
	require.Equal(t, f.homePlayers[0], d.FreeThrow.PlayerID)
}

func TestBonusFoulWithoutFouledPlayerRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	for i := 0; i < 4; i++ {
		_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[i], models.FoulPersonal, FoulOptions{})
		require.NoError(t, err)
	}
	_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[4], models.FoulPersonal, FoulOptions{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCollegeOneAndOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultCollegeConfig())
	f.start(t)

	for i := 0; i < 6; i++ {
		_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[i%5], models.FoulPersonal, FoulOptions{})
		require.NoError(t, err)
	}

	d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulPersonal, FoulOptions{
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)
	require.NotNil(t, d.FreeThrow)
	require.True(t, d.FreeThrow.IsOneAndOne)
	require.Equal(t, 1, d.FreeThrow.TotalAttempts)

	// Made front end grants the second attempt.
	d, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)
	require.NotNil(t, d.FreeThrow)
	require.Equal(t, 2, d.FreeThrow.TotalAttempts)
	require.Equal(t, 1, d.HomeScore)

	d, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)
	require.Nil(t, d.FreeThrow)
	require.Equal(t, 2, d.HomeScore)
}

func TestShootingFoulSequences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulShooting, FoulOptions{
		ShotPoints:     3,
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)
	require.Equal(t, 3, d.FreeThrow.TotalAttempts)

	// A second sequence cannot start while one is active.
	_, err = f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[1], models.FoulShooting, FoulOptions{
		ShotPoints:     2,
		FouledPlayerID: f.homePlayers[1],
	})
	require.ErrorIs(t, err, ErrSequenceConflict)

	for i := 0; i < 3; i++ {
		d, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
		require.NoError(t, err)
	}
	require.Nil(t, d.FreeThrow)
	require.Equal(t, 3, d.HomeScore)
	require.Equal(t, 3, d.Player.FreeThrowsMade)
}

func TestAndOneAwardsSingleAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulShooting, FoulOptions{
		AndOne:         true,
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)
	require.Equal(t, 1, d.FreeThrow.TotalAttempts)
}

func TestTechnicalFoulAttempts(t *testing.T) {
	ctx := context.Background()

	nba := newFixture(t, models.DefaultNBAConfig())
	nba.start(t)
	d, err := nba.eng.RecordFoul(ctx, nba.game.ID, uuid.New(), nba.awayPlayers[0], models.FoulTechnical, FoulOptions{
		FouledPlayerID: nba.homePlayers[0],
	})
	require.NoError(t, err)
	require.Equal(t, 1, d.FreeThrow.TotalAttempts)
	// Technicals stay out of the team-foul count.
	require.Zero(t, d.Team.FoulsThisQuarter)
	require.Equal(t, 1, d.Team.FoulsTotal)

	college := newFixture(t, models.DefaultCollegeConfig())
	college.start(t)
	d, err = college.eng.RecordFoul(ctx, college.game.ID, uuid.New(), college.awayPlayers[0], models.FoulTechnical, FoulOptions{
		FouledPlayerID: college.homePlayers[0],
	})
	require.NoError(t, err)
	require.Equal(t, 2, d.FreeThrow.TotalAttempts)
}

func TestMissedFinalFreeThrowOpensRebound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulShooting, FoulOptions{
		ShotPoints:     2,
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)

	_, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)

	d, err := f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), false)
	require.NoError(t, err)
	require.Nil(t, d.FreeThrow)
	require.NotNil(t, d.Prompt)
	require.Equal(t, PromptRebound, d.Prompt.Kind)
	require.Equal(t, 1, d.Player.FreeThrowsMissed)
}

func TestFreeThrowWithoutSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.ErrorIs(t, err, ErrNoActiveSequence)
}

func TestPlayerFoulsOutAtLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	offender := f.awayPlayers[0]
	for i := 0; i < 6; i++ {
		opts := FoulOptions{}
		// From the fifth team foul on, the bonus awards attempts.
		if i >= 4 {
			opts.FouledPlayerID = f.homePlayers[0]
		}
		d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), offender, models.FoulPersonal, opts)
		require.NoError(t, err)
		if d.FreeThrow != nil {
			for a := 0; a < d.FreeThrow.TotalAttempts; a++ {
				_, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
				require.NoError(t, err)
			}
		}
	}

	snap, _ := f.eng.Snapshot(f.game.ID)
	ps := snap.Players[offender]
	require.Equal(t, 6, ps.Fouls)
	require.True(t, ps.FouledOut)
	require.False(t, ps.OnCourt)

	// A disqualified player may not re-enter.
	_, err := f.eng.Substitute(ctx, f.game.ID, uuid.New(), offender, true)
	require.ErrorIs(t, err, ErrStateConflict)
}

func TestTimeoutPausesGameAndDecrements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	d, err := f.eng.RecordTimeout(ctx, f.game.ID, uuid.New(), f.home)
	require.NoError(t, err)
	require.Equal(t, 6, d.Team.TimeoutsRemaining)

	snap, _ := f.eng.Snapshot(f.game.ID)
	require.Equal(t, models.GameStatusPaused, snap.Game.Status)
	require.False(t, snap.GameClock.Running)

	// No timeout from a paused game.
	_, err = f.eng.RecordTimeout(ctx, f.game.ID, uuid.New(), f.away)
	require.ErrorIs(t, err, ErrStateConflict)
}

func TestTimeoutExhaustion(t *testing.T) {
	ctx := context.Background()
	cfg := models.DefaultNBAConfig()
	cfg.TimeoutsPerTeam = 1
	f := newFixture(t, cfg)
	f.start(t)

	_, err := f.eng.RecordTimeout(ctx, f.game.ID, uuid.New(), f.home)
	require.NoError(t, err)
	_, err = f.eng.ResumeGame(ctx, f.game.ID)
	require.NoError(t, err)

	_, err = f.eng.RecordTimeout(ctx, f.game.ID, uuid.New(), f.home)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSubstitution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	bench := f.homePlayers[5]
	d, err := f.eng.Substitute(ctx, f.game.ID, uuid.New(), bench, true)
	require.NoError(t, err)
	require.True(t, d.Player.OnCourt)

	// Same direction twice is invalid.
	_, err = f.eng.Substitute(ctx, f.game.ID, uuid.New(), bench, true)
	require.ErrorIs(t, err, ErrValidation)
}

func TestUndoLastShot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	made := true
	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot2,
		Made:     made,
	})
	require.NoError(t, err)

	d, err := f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatShot2, &made)
	require.NoError(t, err)
	require.Zero(t, d.HomeScore)
	require.Len(t, d.RemovedEventIDs, 1)
	require.Zero(t, d.Player.Points)
	require.Zero(t, d.Player.FieldGoalsMade)

	// The assist advisory the shot opened is cancelled with it.
	err = f.eng.DismissPrompt(f.game.ID, PromptAssist)
	require.ErrorIs(t, err, ErrNoPendingPrompt)
}

func TestUndoIsSingleLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	made := true
	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{PlayerID: f.homePlayers[0], Type: StatShot2, Made: made})
	require.NoError(t, err)

	_, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatShot2, &made)
	require.NoError(t, err)

	// Nothing left to undo.
	_, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatShot2, &made)
	require.ErrorIs(t, err, ErrStaleUndo)
}

func TestUndoStaleAfterLaterEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	made := true
	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{PlayerID: f.homePlayers[0], Type: StatShot2, Made: made})
	require.NoError(t, err)
	_, err = f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{PlayerID: f.awayPlayers[0], Type: StatSteal})
	require.NoError(t, err)

	_, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatShot2, &made)
	require.ErrorIs(t, err, ErrStaleUndo)
}

func TestUndoRejectsMismatchedKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	made := true
	notMade := false
	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{PlayerID: f.homePlayers[0], Type: StatShot2, Made: made})
	require.NoError(t, err)

	_, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[1], StatShot2, &made)
	require.ErrorIs(t, err, ErrStaleUndo)

	_, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatShot3, &made)
	require.ErrorIs(t, err, ErrStaleUndo)

	_, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatShot2, &notMade)
	require.ErrorIs(t, err, ErrStaleUndo)
}

func TestUndoFoulCancelsFreeThrowSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulShooting, FoulOptions{
		ShotPoints:     2,
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)

	d, err := f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], StatFoul, nil)
	require.NoError(t, err)
	require.Nil(t, d.FreeThrow)

	snap, _ := f.eng.Snapshot(f.game.ID)
	require.Nil(t, snap.FreeThrow)
	require.Zero(t, snap.Players[f.awayPlayers[0]].Fouls)
	require.Zero(t, snap.Teams[f.away].FoulsThisQuarter)
}

func TestTeamReboundDirect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)
	require.NoError(t, f.eng.StartShotClock(ctx, f.game.ID))

	f.clk.Advance(5 * time.Second)

	d, err := f.eng.RecordTeamRebound(ctx, f.game.ID, uuid.New(), f.home, models.ReboundOffensive)
	require.NoError(t, err)
	require.Equal(t, 1, d.Team.TeamRebounds)
	require.Equal(t, 1, d.Team.Rebounds)

	snap, _ := f.eng.Snapshot(f.game.ID)
	require.InDelta(t, 14, snap.ShotClock.Display, 0.001)
}

func TestUndoFreeThrowAttemptRewindsSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulShooting, FoulOptions{
		ShotPoints:     2,
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)

	d, err := f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)
	require.Equal(t, 2, d.FreeThrow.CurrentAttempt)

	// A mis-keyed first attempt is corrected: the shooter keeps both awarded
	// attempts.
	made := true
	d, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatFreeThrow, &made)
	require.NoError(t, err)
	require.NotNil(t, d.FreeThrow)
	require.Equal(t, 1, d.FreeThrow.CurrentAttempt)
	require.Equal(t, 2, d.FreeThrow.TotalAttempts)
	require.Empty(t, d.FreeThrow.Results)
	require.Zero(t, d.HomeScore)
	require.Zero(t, d.Player.FreeThrowsMade)

	// Both attempts can now be shot.
	_, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), false)
	require.NoError(t, err)
	d, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)
	require.Nil(t, d.FreeThrow)
	require.Equal(t, 1, d.HomeScore)
	require.Equal(t, 1, d.Player.FreeThrowsMade)
	require.Equal(t, 1, d.Player.FreeThrowsMissed)
}

func TestUndoOneAndOneFrontEndUngrowsSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultCollegeConfig())
	f.start(t)

	for i := 0; i < 6; i++ {
		_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[i%5], models.FoulPersonal, FoulOptions{})
		require.NoError(t, err)
	}
	d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulPersonal, FoulOptions{
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)
	require.True(t, d.FreeThrow.IsOneAndOne)

	// Made front end grants the second attempt.
	d, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)
	require.Equal(t, 2, d.FreeThrow.TotalAttempts)

	// Undoing the front end revokes the granted second attempt.
	made := true
	d, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatFreeThrow, &made)
	require.NoError(t, err)
	require.Equal(t, 1, d.FreeThrow.TotalAttempts)
	require.Equal(t, 1, d.FreeThrow.CurrentAttempt)
	require.True(t, d.FreeThrow.IsOneAndOne)

	// Corrected to a miss: the sequence ends on the front end, live ball.
	d, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), false)
	require.NoError(t, err)
	require.Nil(t, d.FreeThrow)
	require.NotNil(t, d.Prompt)
	require.Equal(t, PromptRebound, d.Prompt.Kind)
}

func TestUndoFinalFreeThrowReinstatesSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), f.awayPlayers[0], models.FoulShooting, FoulOptions{
		ShotPoints:     2,
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)

	_, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)
	d, err := f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
	require.NoError(t, err)
	require.Nil(t, d.FreeThrow)

	// Undoing the completing attempt reopens the sequence at attempt two.
	made := true
	d, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), f.homePlayers[0], StatFreeThrow, &made)
	require.NoError(t, err)
	require.NotNil(t, d.FreeThrow)
	require.Equal(t, 2, d.FreeThrow.CurrentAttempt)
	require.Equal(t, []bool{true}, d.FreeThrow.Results)

	// The corrected final attempt is a miss: sequence ends with a rebound.
	d, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), false)
	require.NoError(t, err)
	require.Nil(t, d.FreeThrow)
	require.NotNil(t, d.Prompt)
	require.Equal(t, PromptRebound, d.Prompt.Kind)

	snap, _ := f.eng.Snapshot(f.game.ID)
	require.Equal(t, 1, snap.Players[f.homePlayers[0]].FreeThrowsMade)
	require.Equal(t, 1, snap.Players[f.homePlayers[0]].FreeThrowsMissed)
	require.Equal(t, 1, snap.Game.HomeScore)
}

func TestResolvePromptRetryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot2,
		Made:     true,
	})
	require.NoError(t, err)

	reqID := uuid.New()
	first, err := f.eng.ResolvePrompt(ctx, f.game.ID, reqID, PromptAssist, ResolvePromptChoice{
		PlayerID: f.homePlayers[1],
	})
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// A transient retry of the same resolve returns the cached result even
	// though the prompt is gone.
	second, err := f.eng.ResolvePrompt(ctx, f.game.ID, reqID, PromptAssist, ResolvePromptChoice{
		PlayerID: f.homePlayers[1],
	})
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.Seq, second.Seq)

	// Start marker, shot, one assist.
	n, err := f.store.CountByGame(ctx, f.game.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestFailedResolveLeavesPromptPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot2,
		Made:     true,
	})
	require.NoError(t, err)

	_, err = f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptAssist, ResolvePromptChoice{
		PlayerID: uuid.New(),
	})
	require.ErrorIs(t, err, ErrValidation)

	// The advisory survives the rejected resolve.
	d, err := f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptAssist, ResolvePromptChoice{
		PlayerID: f.homePlayers[1],
	})
	require.NoError(t, err)
	require.Equal(t, models.StatEventAssist, d.Events[0].Type)
}

func TestAssistMustCreditATeammate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.RecordStat(ctx, f.game.ID, RecordStatRequest{
		PlayerID: f.homePlayers[0],
		Type:     StatShot3,
		Made:     true,
	})
	require.NoError(t, err)

	// Not the scorer themselves.
	_, err = f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptAssist, ResolvePromptChoice{
		PlayerID: f.homePlayers[0],
	})
	require.ErrorIs(t, err, ErrValidation)

	// Not an opponent.
	_, err = f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptAssist, ResolvePromptChoice{
		PlayerID: f.awayPlayers[0],
	})
	require.ErrorIs(t, err, ErrValidation)

	d, err := f.eng.ResolvePrompt(ctx, f.game.ID, uuid.New(), PromptAssist, ResolvePromptChoice{
		PlayerID: f.homePlayers[1],
	})
	require.NoError(t, err)
	require.Equal(t, 1, d.Player.Assists)
}

func TestUndoDisqualifyingFoulRestoresOnCourt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	offender := f.awayPlayers[0]
	for i := 0; i < 5; i++ {
		opts := FoulOptions{}
		if i >= 4 {
			opts.FouledPlayerID = f.homePlayers[0]
		}
		d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), offender, models.FoulPersonal, opts)
		require.NoError(t, err)
		if d.FreeThrow != nil {
			for a := 0; a < d.FreeThrow.TotalAttempts; a++ {
				_, err = f.eng.RecordFreeThrowResult(ctx, f.game.ID, uuid.New(), true)
				require.NoError(t, err)
			}
		}
	}

	d, err := f.eng.RecordFoul(ctx, f.game.ID, uuid.New(), offender, models.FoulPersonal, FoulOptions{
		FouledPlayerID: f.homePlayers[0],
	})
	require.NoError(t, err)
	require.True(t, d.Player.FouledOut)
	require.False(t, d.Player.OnCourt)

	// The sixth foul was mis-keyed; undoing it puts the player back on the
	// floor.
	d, err = f.eng.UndoStat(ctx, f.game.ID, uuid.New(), offender, StatFoul, nil)
	require.NoError(t, err)
	require.Equal(t, 5, d.Player.Fouls)
	require.False(t, d.Player.FouledOut)
	require.True(t, d.Player.OnCourt)

	snap, _ := f.eng.Snapshot(f.game.ID)
	require.True(t, snap.Players[offender].OnCourt)

	_, err = f.eng.Substitute(ctx, f.game.ID, uuid.New(), offender, false)
	require.NoError(t, err)
}
