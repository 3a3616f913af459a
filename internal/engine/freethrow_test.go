package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewFreeThrowSequenceAttemptCounts(t *testing.T) {
	p, tm := uuid.New(), uuid.New()

	cases := []struct {
		name       string
		shotPoints int
		andOne     bool
		oneAndOne  bool
		want       int
		wantOne    bool
	}{
		{name: "missed two", shotPoints: 2, want: 2},
		{name: "missed three", shotPoints: 3, want: 3},
		{name: "and one", shotPoints: 2, andOne: true, want: 1},
		{name: "bonus", want: 2},
		{name: "one and one", oneAndOne: true, want: 1, wantOne: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seq := newFreeThrowSequence(p, tm, tc.shotPoints, tc.andOne, tc.oneAndOne)
			require.Equal(t, tc.want, seq.TotalAttempts)
			require.Equal(t, tc.wantOne, seq.IsOneAndOne)
			require.Equal(t, 1, seq.CurrentAttempt)
		})
	}
}

func TestRecordAttemptStandardSequence(t *testing.T) {
	seq := newFreeThrowSequence(uuid.New(), uuid.New(), 2, false, false)

	done, finalMissed := seq.recordAttempt(true)
	require.False(t, done)
	require.Equal(t, 2, seq.CurrentAttempt)

	done, finalMissed = seq.recordAttempt(false)
	require.True(t, done)
	require.True(t, finalMissed)
	require.Equal(t, []bool{true, false}, seq.Results)
}

func TestRecordAttemptMadeFinalOpensNoRebound(t *testing.T) {
	seq := newFreeThrowSequence(uuid.New(), uuid.New(), 0, false, false)

	seq.recordAttempt(false)
	done, finalMissed := seq.recordAttempt(true)
	require.True(t, done)
	require.False(t, finalMissed)
}

func TestRecordAttemptOneAndOneFrontEndMiss(t *testing.T) {
	seq := newFreeThrowSequence(uuid.New(), uuid.New(), 0, false, true)

	done, finalMissed := seq.recordAttempt(false)
	require.True(t, done)
	require.True(t, finalMissed)
	require.Equal(t, 1, seq.TotalAttempts)
}

func TestRecordAttemptOneAndOneFrontEndMadeGrantsSecond(t *testing.T) {
	seq := newFreeThrowSequence(uuid.New(), uuid.New(), 0, false, true)

	done, _ := seq.recordAttempt(true)
	require.False(t, done)
	require.Equal(t, 2, seq.TotalAttempts)
	require.Equal(t, 2, seq.CurrentAttempt)

	done, finalMissed := seq.recordAttempt(true)
	require.True(t, done)
	require.False(t, finalMissed)
}
