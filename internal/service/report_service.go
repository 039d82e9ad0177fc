package service

import (
	"context"
	"io"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/export"
)

// --- Service Interface ---

// ReportService exposes the audit and sync trails and the workbook export.
type ReportService interface {
	// AuditLogs returns up to limit entries, newest first, optionally only
	// those of one student. A limit <= 0 returns everything.
	AuditLogs(ctx context.Context, studentID string, limit int) ([]domain.AuditLog, error)
	SyncLogs(ctx context.Context, limit int) ([]domain.SyncLog, error)
	ExportWorkbook(ctx context.Context, w io.Writer) error
}

// --- Service Implementation ---

type reportService struct {
	store DocumentStore
}

// NewReportService creates a new instance of reportService.
func NewReportService(ds DocumentStore) ReportService {
	return &reportService{store: ds}
}

func (s *reportService) AuditLogs(ctx context.Context, studentID string, limit int) ([]domain.AuditLog, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditLog, 0)
	for _, entry := range doc.AuditLogs {
		if studentID != "" && entry.StudentID != studentID {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *reportService) SyncLogs(ctx context.Context, limit int) ([]domain.SyncLog, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	logs := doc.SyncLogs
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *reportService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	doc, err := s.store.ExportData(ctx)
	if err != nil {
		return err
	}
	return export.WriteWorkbook(doc, w)
}
