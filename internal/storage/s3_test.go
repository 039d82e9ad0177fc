package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/config"
)

func TestBackupObjectKey(t *testing.T) {
	if got := BackupObjectKey("abc"); got != "backups/abc.json" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestPresignedDownloadURLUsesCustomEndpoint(t *testing.T) {
	fs, err := NewS3Storage(context.Background(), config.S3Config{
		Endpoint:        "http://127.0.0.1:9000",
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test-secret",
		BucketName:      "studio",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	url, err := fs.GeneratePresignedDownloadURL(context.Background(), BackupObjectKey("b1"), time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://127.0.0.1:9000/studio/backups/b1.json?") {
		t.Fatalf("unexpected presigned url %s", url)
	}
	if !strings.Contains(url, "X-Amz-Expires=60") {
		t.Fatalf("expiry missing from %s", url)
	}
}
