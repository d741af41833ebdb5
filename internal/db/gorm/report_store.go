package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Mayank-Dandane/honeypot-api/internal/callback"
)

// ReportStore archives report dispatches.
type ReportStore struct {
	db *gorm.DB
}

// NewReportStore creates a report store on top of an open Store.
func NewReportStore(store *Store) *ReportStore {
	return &ReportStore{db: store.DB}
}

// RecordFromResult converts a dispatch result into an archive row.
func RecordFromResult(res callback.Result) *ReportRecord {
	rec := &ReportRecord{
		ReportID:          res.ReportID,
		SessionID:         res.Report.SessionID,
		ScamType:          string(res.Report.ScamType),
		ScamDetected:      res.Report.ScamDetected,
		TotalMessages:     res.Report.TotalMessagesExchanged,
		IntelligenceCount: res.Report.ExtractedIntelligence.Count(),
		Payload:           string(res.Body),
		Delivered:         res.Delivered,
		Attempts:          res.Attempts,
		StatusCode:        res.StatusCode,
		DurationMs:        res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if rec.Payload == "" {
		rec.Payload = "{}"
	}
	return rec
}

// Archive stores the outcome of one dispatch.
func (s *ReportStore) Archive(ctx context.Context, res callback.Result) error {
	return s.Save(ctx, RecordFromResult(res))
}

// Save inserts a record.
func (s *ReportStore) Save(ctx context.Context, rec *ReportRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// List returns the most recent records first.
func (s *ReportStore) List(ctx context.Context, limit int) ([]*ReportRecord, error) {
	var records []*ReportRecord
	err := s.db.WithContext(ctx).
		Order("created_at_epoch DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ListBySession returns every record for one session, oldest first.
func (s *ReportStore) ListBySession(ctx context.Context, sessionID string) ([]*ReportRecord, error) {
	var records []*ReportRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// GetByReportID returns one record, or nil when it does not exist.
func (s *ReportStore) GetByReportID(ctx context.Context, reportID string) (*ReportRecord, error) {
	var rec ReportRecord
	err := s.db.WithContext(ctx).Where("report_id = ?", reportID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CountDelivered returns how many reports were accepted by the endpoint.
func (s *ReportStore) CountDelivered(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&ReportRecord{}).Where("delivered = ?", true).Count(&count).Error
	return count, err
}
