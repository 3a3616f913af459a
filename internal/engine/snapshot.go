package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/models"
)

// ClockView is the authoritative clock triple plus the display value derived
// from it at snapshot time. Clients re-derive the running display locally and
// overwrite it on the next authoritative update.
type ClockView struct {
	Remaining float64   `json:"remaining"`
	LastSync  time.Time `json:"last_sync"`
	Running   bool      `json:"running"`
	Display   float64   `json:"display"`
}

// Snapshot is the full authoritative state of one game session, sufficient for
// a client to resynchronize from scratch.
type Snapshot struct {
	Game    models.Game `json:"game"`
	Seq     int64       `json:"seq"`
	AsOf    time.Time   `json:"as_of"`

	GameClock        ClockView `json:"game_clock"`
	ShotClock        ClockView `json:"shot_clock"`
	ViolationPending bool      `json:"violation_pending"`

	Teams   map[uuid.UUID]models.TeamGameStat   `json:"teams"`
	Players map[uuid.UUID]models.PlayerGameStat `json:"players"`

	FreeThrow *FreeThrowSequence `json:"free_throw,omitempty"`
	Prompts   []PendingPrompt    `json:"prompts,omitempty"`
}

func clockView(c clockState, now time.Time) ClockView {
	return ClockView{
		Remaining: c.remaining,
		LastSync:  c.lastSync,
		Running:   c.running,
		Display:   c.displayed(now),
	}
}

// Snapshot returns a consistent copy of the session state stamped with the
// server time it was taken at.
func (s *session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	snap := &Snapshot{
		Game:             *s.game,
		Seq:              s.seq,
		AsOf:             now,
		GameClock:        clockView(s.gameClock, now),
		ShotClock:        clockView(s.shot.clockState, now),
		ViolationPending: s.shot.violationPending,
		Teams:            make(map[uuid.UUID]models.TeamGameStat, len(s.teams)),
		Players:          make(map[uuid.UUID]models.PlayerGameStat, len(s.players)),
	}
	for id, ts := range s.teams {
		snap.Teams[id] = *ts
	}
	for id, ps := range s.players {
		snap.Players[id] = *ps
	}
	if s.ft != nil {
		ft := *s.ft
		ft.Results = append([]bool(nil), s.ft.Results...)
		snap.FreeThrow = &ft
	}
	for _, p := range s.prompts {
		snap.Prompts = append(snap.Prompts, *p)
	}
	return snap
}

// Events returns a copy of the log page starting after the given sequence
// number, newest last, up to limit entries. A limit of zero means no cap.
// Quarter filters to a single quarter when nonzero.
func (s *session) Events(afterSeq int64, quarter int, limit int) []models.StatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.StatEvent, 0, len(s.events))
	for _, ev := range s.events {
		if ev.Seq <= afterSeq {
			continue
		}
		if quarter != 0 && ev.Quarter != quarter {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
