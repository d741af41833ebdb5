package turn

import "github.com/Mayank-Dandane/honeypot-api/pkg/models"

// Default report thresholds, in processed turns.
const (
	DefaultMinTurns = 8
	DefaultMaxTurns = 10
)

// ReportPolicy decides when a session has gathered enough to be reported.
type ReportPolicy struct {
	// MinTurns is the floor a confirmed scam must reach before it is reported.
	MinTurns int `json:"minTurns"`
	// MaxTurns forces a report regardless of confirmation.
	MaxTurns int `json:"maxTurns"`
}

// DefaultReportPolicy returns the default thresholds.
func DefaultReportPolicy() ReportPolicy {
	return ReportPolicy{MinTurns: DefaultMinTurns, MaxTurns: DefaultMaxTurns}
}

// Normalize substitutes defaults for unset values and keeps MaxTurns >= MinTurns.
func (p ReportPolicy) Normalize() ReportPolicy {
	if p.MinTurns <= 0 {
		p.MinTurns = DefaultMinTurns
	}
	if p.MaxTurns <= 0 {
		p.MaxTurns = DefaultMaxTurns
	}
	if p.MaxTurns < p.MinTurns {
		p.MaxTurns = p.MinTurns
	}
	return p
}

// Ready reports whether s should be reported now.
func (p ReportPolicy) Ready(s models.Session) bool {
	if s.ReportAttempted || s.ReportSent {
		return false
	}
	if s.TotalTurns >= p.MaxTurns {
		return true
	}
	return s.ScamConfirmed && s.TotalTurns >= p.MinTurns
}
