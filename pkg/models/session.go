// Package models contains domain models for the honeypot.
package models

import (
	"slices"
	"time"
)

// SessionState is the observable position of a session in the engagement lifecycle.
type SessionState string

const (
	SessionStateNew         SessionState = "NEW"
	SessionStateUnconfirmed SessionState = "ENGAGED_UNCONFIRMED"
	SessionStateConfirmed   SessionState = "ENGAGED_CONFIRMED"
	SessionStateReported    SessionState = "REPORTED"
)

// Session is the accumulated state for one scammer conversation.
// Values handed out by the session manager are snapshots and safe to read without locking.
type Session struct {
	CreatedAt          time.Time    `json:"createdAt"`
	LastUpdated        time.Time    `json:"lastUpdated"`
	ID                 string       `json:"sessionId"`
	ScamType           ScamType     `json:"scamType,omitempty"`
	Summary            string       `json:"summary,omitempty"`
	Tactics            []string     `json:"tactics"`
	Intelligence       Intelligence `json:"intelligence"`
	ScamTypeConfidence float64      `json:"scamTypeConfidence"`
	TotalTurns         int          `json:"totalTurns"`
	ScamConfirmed      bool         `json:"scamConfirmed"`
	ReportAttempted    bool         `json:"reportAttempted"`
	ReportSent         bool         `json:"reportSent"`
}

// NewSession creates an empty session stamped with now.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:          id,
		CreatedAt:   now,
		LastUpdated: now,
		Tactics:     []string{},
	}
}

// State derives the lifecycle state from the session flags.
func (s *Session) State() SessionState {
	switch {
	case s.ReportSent:
		return SessionStateReported
	case s.ScamConfirmed:
		return SessionStateConfirmed
	case s.TotalTurns == 0:
		return SessionStateNew
	default:
		return SessionStateUnconfirmed
	}
}

// Duration is the engagement length from creation to the last update.
func (s *Session) Duration() time.Duration {
	if s.LastUpdated.Before(s.CreatedAt) {
		return 0
	}
	return s.LastUpdated.Sub(s.CreatedAt)
}

// AddTactic appends a tactic label if it has not been observed yet.
// Reports whether the list changed.
func (s *Session) AddTactic(tactic string) bool {
	if tactic == "" || slices.Contains(s.Tactics, tactic) {
		return false
	}
	s.Tactics = append(s.Tactics, tactic)
	return true
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() Session {
	c := *s
	c.Tactics = slices.Clone(s.Tactics)
	if c.Tactics == nil {
		c.Tactics = []string{}
	}
	c.Intelligence = s.Intelligence.Clone()
	return c
}

// SessionView is the JSON shape returned by the sessions API.
type SessionView struct {
	Session
	State           SessionState `json:"state"`
	DurationSeconds int64        `json:"durationSeconds"`
}

// NewSessionView wraps a snapshot with its derived fields.
func NewSessionView(s Session) SessionView {
	return SessionView{
		Session:         s,
		State:           s.State(),
		DurationSeconds: int64(s.Duration().Seconds()),
	}
}
