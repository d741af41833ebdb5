package turn

import "github.com/Mayank-Dandane/honeypot-api/pkg/models"

// Event types published while turns are processed.
const (
	EventTurnProcessed    = "turn_processed"
	EventScamConfirmed    = "scam_confirmed"
	EventReportDispatched = "report_dispatched"
)

// Publisher receives live events. Implementations must not block.
type Publisher interface {
	Publish(eventType string, data any)
}

// TurnEvent is published after a turn's analysis has been merged.
type TurnEvent struct {
	Discovered    *models.Intelligence `json:"discovered,omitempty"`
	SessionID     string               `json:"sessionId"`
	ScamType      models.ScamType      `json:"scamType,omitempty"`
	State         models.SessionState  `json:"state"`
	Signals       []string             `json:"signals,omitempty"`
	TotalTurns    int                  `json:"totalTurns"`
	NewIntel      int                  `json:"newIntelligence"`
	DurationMs    int64                `json:"durationMs"`
	ScamConfirmed bool                 `json:"scamConfirmed"`
	Classified    bool                 `json:"classified"`
}

// ReportEvent is published after a report dispatch finished.
type ReportEvent struct {
	SessionID  string `json:"sessionId"`
	ReportID   string `json:"reportId"`
	Error      string `json:"error,omitempty"`
	Attempts   int    `json:"attempts"`
	StatusCode int    `json:"statusCode,omitempty"`
	Delivered  bool   `json:"delivered"`
}
