package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/storage"
)

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) PutObject(_ context.Context, key, _ string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = body
	return nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://backups.example.com/" + key + "?sig=test", nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

var _ storage.FileStorage = (*fakeStorage)(nil)

func TestRunBackupUploadsSnapshot(t *testing.T) {
	ds, _ := newTestStore(t, dropIn("ana", "Ana"))
	files := newFakeStorage()
	svc := NewBackupService(ds, files)
	ctx := context.Background()

	rec, err := svc.RunBackup(ctx, "staff", domain.BackupManual)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if rec.Status != domain.BackupSuccess || rec.ObjectKey != storage.BackupObjectKey(rec.ID) {
		t.Fatalf("unexpected record %+v", rec)
	}
	body, ok := files.objects[rec.ObjectKey]
	if !ok || int64(len(body)) != rec.Size {
		t.Fatalf("snapshot missing or size mismatch (%d bytes, record says %d)", len(body), rec.Size)
	}
	var snapshot domain.Document
	if err := json.Unmarshal(body, &snapshot); err != nil {
		t.Fatalf("snapshot is not a document: %v", err)
	}
	if _, ok := snapshot.Students["ana"]; !ok {
		t.Fatal("snapshot lacks the roster")
	}

	url, err := svc.DownloadURL(ctx, rec.ID)
	if err != nil || url == "" {
		t.Fatalf("download url: %q (%v)", url, err)
	}

	list, err := svc.ListBackups(ctx)
	if err != nil || len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("unexpected backup list %+v (%v)", list, err)
	}
}

func TestRunBackupRecordsUploadFailure(t *testing.T) {
	ds, _ := newTestStore(t)
	files := newFakeStorage()
	files.putErr = errors.New("bucket unreachable")
	svc := NewBackupService(ds, files)

	rec, err := svc.RunBackup(context.Background(), "staff", domain.BackupManual)
	if err != nil {
		t.Fatalf("an upload failure must not fail the call: %v", err)
	}
	if rec.Status != domain.BackupError || rec.Message != "bucket unreachable" || rec.ObjectKey != "" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := svc.DownloadURL(context.Background(), rec.ID); !errors.Is(err, ErrBackupNotUploaded) {
		t.Fatalf("expected ErrBackupNotUploaded, got %v", err)
	}
	if doc := mustRead(t, ds); len(doc.Backups) != 1 || doc.Backups[0].Status != domain.BackupError {
		t.Fatalf("failed backup not recorded: %+v", doc.Backups)
	}
}

func TestRunBackupWithoutStorage(t *testing.T) {
	ds, _ := newTestStore(t)
	svc := NewBackupService(ds, nil)
	ctx := context.Background()

	if _, err := svc.RunBackup(ctx, "staff", "WEEKLY"); !errors.Is(err, ErrInvalidBackupType) {
		t.Fatalf("expected ErrInvalidBackupType, got %v", err)
	}
	rec, err := svc.RunBackup(ctx, "staff", domain.BackupAuto)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if rec.Status != domain.BackupSuccess || rec.Size == 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, err := svc.DownloadURL(ctx, rec.ID); !errors.Is(err, ErrBackupStorageDisabled) {
		t.Fatalf("expected ErrBackupStorageDisabled, got %v", err)
	}
}

func TestDeleteBackup(t *testing.T) {
	ds, _ := newTestStore(t)
	files := newFakeStorage()
	svc := NewBackupService(ds, files)
	ctx := context.Background()

	rec, err := svc.RunBackup(ctx, "staff", domain.BackupManual)
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if err := svc.DeleteBackup(ctx, "staff", rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(files.objects) != 0 {
		t.Fatal("snapshot not deleted from storage")
	}
	doc := mustRead(t, ds)
	if len(doc.Backups) != 0 {
		t.Fatalf("record not removed: %+v", doc.Backups)
	}
	if doc.AuditLogs[0].Action != ActionBackupDeleted {
		t.Fatalf("unexpected audit action %s", doc.AuditLogs[0].Action)
	}
	if err := svc.DeleteBackup(ctx, "staff", rec.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRunAutoBackupsHonorsSetting(t *testing.T) {
	ds, _ := newTestStore(t)
	svc := NewBackupService(ds, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunAutoBackups(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		doc := mustRead(t, ds)
		if len(doc.Backups) > 0 {
			if doc.Backups[0].Type != domain.BackupAuto {
				t.Fatalf("expected an AUTO backup, got %s", doc.Backups[0].Type)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no automatic backup was taken")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}
