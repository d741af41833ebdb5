// Package callback builds the final intelligence report and delivers it to the evaluation endpoint.
package callback

import (
	"fmt"
	"strings"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// BuildReport assembles the outbound payload from a session snapshot.
func BuildReport(s models.Session) models.FinalReport {
	scamType := s.ScamType
	if scamType == "" {
		scamType = models.ScamTypeUnknown
	}
	return models.FinalReport{
		SessionID:              s.ID,
		Status:                 models.ReportStatusCompleted,
		ScamDetected:           s.ScamConfirmed,
		ScamType:               scamType,
		TotalMessagesExchanged: s.TotalTurns,
		ExtractedIntelligence:  s.Intelligence.Clone(),
		AgentNotes:             BuildNotes(s),
		EngagementMetrics: models.EngagementMetrics{
			TotalMessagesExchanged:    s.TotalTurns,
			EngagementDurationSeconds: int64(s.Duration().Seconds()),
		},
	}
}

// BuildNotes writes the human readable summary that accompanies the report.
func BuildNotes(s models.Session) string {
	var parts []string

	if s.ScamConfirmed {
		scamType := s.ScamType
		if scamType == "" {
			scamType = models.ScamTypeUnknown
		}
		parts = append(parts, fmt.Sprintf("Scam confirmed (%s) after %d messages.", humanize(string(scamType)), s.TotalTurns))
	} else {
		parts = append(parts, fmt.Sprintf("Scam not confirmed after %d messages.", s.TotalTurns))
	}
	if s.Summary != "" {
		parts = append(parts, strings.TrimSuffix(s.Summary, ".")+".")
	}
	if len(s.Tactics) > 0 {
		tactics := make([]string, len(s.Tactics))
		for i, t := range s.Tactics {
			tactics[i] = humanize(t)
		}
		parts = append(parts, "Tactics: "+strings.Join(tactics, ", ")+".")
	}
	if orgs := s.Intelligence.Get(models.FieldOrganizations); len(orgs) > 0 {
		parts = append(parts, "Impersonated: "+strings.Join(orgs, ", ")+".")
	}
	for _, f := range models.Fields {
		values := s.Intelligence.Get(f)
		if f == models.FieldOrganizations || len(values) == 0 {
			continue
		}
		if f == models.FieldSuspiciousKeywords {
			keywords := make([]string, len(values))
			for i, k := range values {
				keywords[i] = humanize(k)
			}
			values = keywords
		}
		parts = append(parts, fmt.Sprintf("%s: %s.", f.Label(), strings.Join(values, ", ")))
	}
	if s.Intelligence.Count()-len(s.Intelligence.Get(models.FieldSuspiciousKeywords)) == 0 {
		parts = append(parts, "No actionable identifiers were extracted.")
	}
	return strings.Join(parts, " ")
}

func humanize(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}
