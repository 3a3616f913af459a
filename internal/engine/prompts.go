package engine

import (
	"time"

	"github.com/google/uuid"
)

// PromptKind identifies an advisory follow-up prompt.
type PromptKind string

const (
	PromptAssist  PromptKind = "ASSIST"
	PromptRebound PromptKind = "REBOUND"
)

// PendingPrompt is an ephemeral advisory opened after a made shot (assist?)
// or a missed shot / missed final free throw (rebound?). It never enters the
// authoritative log; at most one prompt of each kind is pending per game.
// A conflicting authoritative event silently supersedes a stale prompt, and
// an unanswered prompt expires after a short window.
type PendingPrompt struct {
	Kind          PromptKind `json:"kind"`
	SourceEventID uuid.UUID  `json:"source_event_id"`
	// Assist prompts propose crediting a teammate of the scorer.
	ScorerID *uuid.UUID `json:"scorer_id,omitempty"`
	// Rebound prompts carry the shooting team so the operator's choice can be
	// classified offensive or defensive.
	ShooterTeamID *uuid.UUID `json:"shooter_team_id,omitempty"`
	OpenedAt      time.Time  `json:"opened_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
}

func newAssistPrompt(sourceEventID, scorerID uuid.UUID, now time.Time, window time.Duration) *PendingPrompt {
	return &PendingPrompt{
		Kind:          PromptAssist,
		SourceEventID: sourceEventID,
		ScorerID:      &scorerID,
		OpenedAt:      now,
		ExpiresAt:     now.Add(window),
	}
}

func newReboundPrompt(sourceEventID, shooterTeamID uuid.UUID, now time.Time, window time.Duration) *PendingPrompt {
	return &PendingPrompt{
		Kind:          PromptRebound,
		SourceEventID: sourceEventID,
		ShooterTeamID: &shooterTeamID,
		OpenedAt:      now,
		ExpiresAt:     now.Add(window),
	}
}
