//go:build integration

package s3

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/windforest/querychat/internal/config"
	"github.com/windforest/querychat/internal/storage"
)

func TestStoreRoundTripAgainstMinIO(t *testing.T) {
	endpoint := envOr("QUERYCHAT_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("QUERYCHAT_TEST_S3_ENDPOINT is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(ctx, config.ObjectStoreConfig{
		Endpoint:         endpoint,
		Region:           envOr("QUERYCHAT_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("QUERYCHAT_TEST_S3_BUCKET", "querychat-it"),
		AccessKeyID:      envOr("QUERYCHAT_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("QUERYCHAT_TEST_S3_SECRET_KEY", "miniostorage"),
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key, err := storage.SnapshotManifestPath("roundtrip")
	if err != nil {
		t.Fatalf("SnapshotManifestPath() error = %v", err)
	}
	payload := []byte(`{"name":"roundtrip","tables":[]}`)
	if _, err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	stat, err := store.Stat(ctx, key)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.Size != int64(len(payload)) {
		t.Fatalf("Stat().Size = %d, want %d", stat.Size, len(payload))
	}

	reader, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got, err := io.ReadAll(reader)
	_ = reader.Close()
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Get() payload = %q, want %q", got, payload)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
