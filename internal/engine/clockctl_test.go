package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mpratt21/courtside/internal/models"
)

func TestSetGameTimeRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	require.NoError(t, f.eng.SetGameTime(ctx, f.game.ID, 65.4))
	snap, _ := f.eng.Snapshot(f.game.ID)
	require.InDelta(t, 65.4, snap.GameClock.Display, 0.001)

	require.ErrorIs(t, f.eng.SetGameTime(ctx, f.game.ID, -1), ErrValidation)
	require.ErrorIs(t, f.eng.SetGameTime(ctx, f.game.ID, float64(f.game.Config.QuarterLengthSec+1)), ErrValidation)
}

func TestSetGameTimeOvertimeRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	_, err := f.eng.SetQuarter(ctx, f.game.ID, 5, true)
	require.NoError(t, err)

	// 300s overtime: the regulation maximum is now out of range.
	require.ErrorIs(t, f.eng.SetGameTime(ctx, f.game.ID, 600), ErrValidation)
	require.NoError(t, f.eng.SetGameTime(ctx, f.game.ID, 300))
}

func TestSetShotClockTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	require.NoError(t, f.eng.SetShotClockTime(ctx, f.game.ID, 17.5))
	snap, _ := f.eng.Snapshot(f.game.ID)
	require.InDelta(t, 17.5, snap.ShotClock.Display, 0.001)

	require.ErrorIs(t, f.eng.SetShotClockTime(ctx, f.game.ID, 25), ErrValidation)
}

func TestShotClockEditClearsPendingViolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)
	require.NoError(t, f.eng.StartShotClock(ctx, f.game.ID))

	f.clk.Advance(24 * time.Second)
	f.eng.tickDue(ctx, f.clk.Now())
	snap, _ := f.eng.Snapshot(f.game.ID)
	require.True(t, snap.ViolationPending)

	require.NoError(t, f.eng.SetShotClockTime(ctx, f.game.ID, 8))
	snap, _ = f.eng.Snapshot(f.game.ID)
	require.False(t, snap.ViolationPending)
}

func TestResetShotClockValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)

	require.ErrorIs(t, f.eng.ResetShotClock(ctx, f.game.ID, 19), ErrValidation)

	require.NoError(t, f.eng.ResetShotClock(ctx, f.game.ID, 14))
	snap, _ := f.eng.Snapshot(f.game.ID)
	require.InDelta(t, 14, snap.ShotClock.Display, 0.001)
	require.True(t, snap.ShotClock.Running)

	// While paused the reset stamps the value but does not run the clock.
	_, err := f.eng.PauseGame(ctx, f.game.ID)
	require.NoError(t, err)
	require.NoError(t, f.eng.ResetShotClock(ctx, f.game.ID, 24))
	snap, _ = f.eng.Snapshot(f.game.ID)
	require.False(t, snap.ShotClock.Running)
	require.InDelta(t, 24, snap.ShotClock.Display, 0.001)
}

func TestShotClockStartStop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())

	// The shot clock only runs in an active game.
	require.ErrorIs(t, f.eng.StartShotClock(ctx, f.game.ID), ErrStateConflict)

	f.start(t)
	require.NoError(t, f.eng.StartShotClock(ctx, f.game.ID))

	f.clk.Advance(6 * time.Second)
	require.NoError(t, f.eng.StopShotClock(ctx, f.game.ID))

	snap, _ := f.eng.Snapshot(f.game.ID)
	require.False(t, snap.ShotClock.Running)
	require.InDelta(t, 18, snap.ShotClock.Remaining, 0.001)
}

func TestClockEditsRejectedOnCompletedGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.DefaultNBAConfig())
	f.start(t)
	_, err := f.eng.EndGame(ctx, f.game.ID, false)
	require.NoError(t, err)

	require.ErrorIs(t, f.eng.SetGameTime(ctx, f.game.ID, 10), ErrStateConflict)
	require.ErrorIs(t, f.eng.SetShotClockTime(ctx, f.game.ID, 10), ErrStateConflict)
	require.ErrorIs(t, f.eng.ResetShotClock(ctx, f.game.ID, 24), ErrStateConflict)
}
