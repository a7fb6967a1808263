// Package snapshot publishes the SQLite corpus as parquet files in object
// storage and reads the resulting manifest back.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/windforest/querychat/internal/storage"
)

type Manifest struct {
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	Tables    []TableEntry `json:"tables"`
}

type TableEntry struct {
	Table     string   `json:"table"`
	Path      string   `json:"path"`
	Rows      int64    `json:"rows"`
	SizeBytes int64    `json:"size_bytes"`
	Columns   []Column `json:"columns"`
}

type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest name is required")
	}
	seen := make(map[string]struct{}, len(m.Tables))
	for _, table := range m.Tables {
		if table.Table == "" || table.Path == "" {
			return fmt.Errorf("manifest %q has an incomplete table entry", m.Name)
		}
		if _, dup := seen[table.Table]; dup {
			return fmt.Errorf("manifest %q lists table %q twice", m.Name, table.Table)
		}
		seen[table.Table] = struct{}{}
	}
	return nil
}

// LoadManifest reads the manifest of the named snapshot.
func LoadManifest(ctx context.Context, store storage.ObjectStore, name string) (Manifest, error) {
	key, err := storage.SnapshotManifestPath(name)
	if err != nil {
		return Manifest{}, err
	}
	reader, err := store.Get(ctx, key)
	if err != nil {
		return Manifest{}, fmt.Errorf("load manifest %q: %w", name, err)
	}
	defer func() { _ = reader.Close() }()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %q: %w", name, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %q: %w", name, err)
	}
	if err := manifest.Validate(); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

func saveManifest(ctx context.Context, store storage.ObjectStore, manifest Manifest) error {
	key, err := storage.SnapshotManifestPath(manifest.Name)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if _, err := store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), storage.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("put manifest: %w", err)
	}
	return nil
}
