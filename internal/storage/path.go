package storage

import (
	"fmt"
	"path"
	"regexp"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

const manifestFileName = "manifest.json"

// SnapshotTablePath returns the key of one table's parquet file inside a snapshot.
func SnapshotTablePath(snapshotName, tableName string) (string, error) {
	if err := validatePathComponent(snapshotName, "snapshot name"); err != nil {
		return "", err
	}
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	return path.Join("snapshots", snapshotName, "tables", tableName+".parquet"), nil
}

func SnapshotManifestPath(snapshotName string) (string, error) {
	if err := validatePathComponent(snapshotName, "snapshot name"); err != nil {
		return "", err
	}
	return path.Join("snapshots", snapshotName, manifestFileName), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
