package models

// ReportStatus is the completion status carried by the final report.
const ReportStatusCompleted = "completed"

// EngagementMetrics summarizes how long the persona kept the scammer engaged.
type EngagementMetrics struct {
	TotalMessagesExchanged    int   `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int64 `json:"engagementDurationSeconds"`
}

// FinalReport is the consolidated intelligence package delivered to the evaluator.
type FinalReport struct {
	SessionID              string            `json:"sessionId"`
	Status                 string            `json:"status"`
	ScamType               ScamType          `json:"scamType"`
	AgentNotes             string            `json:"agentNotes"`
	ExtractedIntelligence  Intelligence      `json:"extractedIntelligence"`
	EngagementMetrics      EngagementMetrics `json:"engagementMetrics"`
	TotalMessagesExchanged int               `json:"totalMessagesExchanged"`
	ScamDetected           bool              `json:"scamDetected"`
}
