package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/storage"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
)

// --- Error Definitions ---
var (
	ErrBackupStorageDisabled = domain.Validation("BACKUP_STORAGE_DISABLED", "object storage is not configured")
	ErrBackupNotUploaded     = domain.Validation("BACKUP_NOT_UPLOADED", "backup has no stored snapshot")
	ErrInvalidBackupType     = domain.Validation("INVALID_BACKUP_TYPE", "backup type must be AUTO or MANUAL")
)

// --- Service Interface ---

type BackupService interface {
	// RunBackup snapshots the document. An upload failure is recorded on the
	// returned record and does not fail the call.
	RunBackup(ctx context.Context, actorID string, kind domain.BackupType) (*domain.BackupRecord, error)
	ListBackups(ctx context.Context) ([]domain.BackupRecord, error)
	DownloadURL(ctx context.Context, id string) (string, error)
	DeleteBackup(ctx context.Context, actorID, id string) error
	// RunAutoBackups takes an AUTO backup every interval while the studio
	// setting is on. It blocks until ctx is done.
	RunAutoBackups(ctx context.Context, interval time.Duration)
}

// --- Service Implementation ---

type backupService struct {
	store       DocumentStore
	fileStorage storage.FileStorage // nil when uploads are disabled
}

// NewBackupService creates a new instance of backupService.
func NewBackupService(ds DocumentStore, fileStorage storage.FileStorage) BackupService {
	return &backupService{store: ds, fileStorage: fileStorage}
}

func (s *backupService) RunBackup(ctx context.Context, actorID string, kind domain.BackupType) (*domain.BackupRecord, error) {
	if kind != domain.BackupAuto && kind != domain.BackupManual {
		return nil, ErrInvalidBackupType
	}
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}

	rec := domain.BackupRecord{
		ID:        s.store.NewID(),
		Timestamp: s.store.Now(),
		Size:      int64(len(payload)),
		Status:    domain.BackupSuccess,
		Type:      kind,
	}
	if s.fileStorage != nil {
		key := storage.BackupObjectKey(rec.ID)
		if err := s.fileStorage.PutObject(ctx, key, "application/json", payload); err != nil {
			log.Printf("ERROR: Backup %s upload failed: %v", rec.ID, err)
			rec.Status = domain.BackupError
			rec.Message = err.Error()
		} else {
			rec.ObjectKey = key
		}
	}

	if err := s.store.AddBackup(ctx, rec); err != nil {
		return nil, err
	}
	log.Printf("INFO: %s backup %s recorded (%d bytes, %s) by %s", rec.Type, rec.ID, rec.Size, rec.Status, actorID)
	return &rec, nil
}

func (s *backupService) ListBackups(ctx context.Context) ([]domain.BackupRecord, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Backups, nil
}

func (s *backupService) find(ctx context.Context, id string) (*domain.BackupRecord, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range doc.Backups {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, domain.NotFound("BACKUP_NOT_FOUND", "backup "+id+" not found")
}

func (s *backupService) DownloadURL(ctx context.Context, id string) (string, error) {
	if s.fileStorage == nil {
		return "", ErrBackupStorageDisabled
	}
	rec, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.ObjectKey == "" {
		return "", ErrBackupNotUploaded
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, rec.ObjectKey, storage.DefaultPresignedURLExpiry)
}

// DeleteBackup removes the record and its stored snapshot.
func (s *backupService) DeleteBackup(ctx context.Context, actorID, id string) error {
	rec, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if rec.ObjectKey != "" && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, rec.ObjectKey); err != nil {
			return fmt.Errorf("failed to delete backup snapshot: %w", err)
		}
	}
	return s.store.Mutate(ctx, func(doc *domain.Document) error {
		kept := doc.Backups[:0]
		for _, b := range doc.Backups {
			if b.ID != id {
				kept = append(kept, b)
			}
		}
		doc.Backups = kept
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionBackupDeleted,
			EntityType: entityBackup,
			EntityID:   id,
			Details:    fmt.Sprintf("Backup %s de %s removido", rec.Type, rec.Timestamp.Format(time.RFC3339)),
		})
		return nil
	})
}

func (s *backupService) RunAutoBackups(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			doc, err := s.store.Read(ctx)
			if err != nil {
				log.Printf("WARN: Auto backup skipped: %v", err)
				continue
			}
			if !doc.Settings.AutoBackup {
				continue
			}
			if _, err := s.RunBackup(ctx, "system", domain.BackupAuto); err != nil {
				log.Printf("ERROR: Auto backup failed: %v", err)
			}
		}
	}
}
