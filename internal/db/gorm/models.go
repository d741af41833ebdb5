package gorm

import (
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// ReportRecord is one archived report dispatch, delivered or not.
type ReportRecord struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID          string          `gorm:"uniqueIndex;size:36;not null" json:"reportId"`
	SessionID         string          `gorm:"index;not null" json:"sessionId"`
	ScamType          string          `gorm:"index" json:"scamType"`
	Payload           string          `gorm:"type:text;not null" json:"-"`
	Error             string          `gorm:"type:text" json:"error,omitempty"`
	Report            json.RawMessage `gorm:"-" json:"report,omitempty"`
	TotalMessages     int             `json:"totalMessages"`
	IntelligenceCount int             `json:"intelligenceCount"`
	Attempts          int             `json:"attempts"`
	StatusCode        int             `json:"statusCode"`
	DurationMs        int64           `json:"durationMs"`
	CreatedAtEpoch    int64           `gorm:"index:idx_reports_created,sort:desc;not null" json:"createdAtEpoch"`
	ScamDetected      bool            `json:"scamDetected"`
	Delivered         bool            `gorm:"index" json:"delivered"`
}

func (ReportRecord) TableName() string { return "report_records" }

// BeforeCreate hook to ensure timestamps are set.
func (r *ReportRecord) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAtEpoch == 0 {
		r.CreatedAtEpoch = time.Now().UnixMilli()
	}
	return nil
}

// AfterFind exposes the stored payload as raw JSON.
func (r *ReportRecord) AfterFind(tx *gorm.DB) error {
	if r.Payload != "" {
		r.Report = json.RawMessage(r.Payload)
	}
	return nil
}
