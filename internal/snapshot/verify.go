package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/windforest/querychat/internal/storage"
)

const maxIssueSamples = 20

type IntegritySummary struct {
	TablesChecked       int `json:"tables_checked"`
	MissingFiles        int `json:"missing_files"`
	SizeMismatchFiles   int `json:"size_mismatch_files"`
	OperationalFailures int `json:"operational_failures"`
}

func (s IntegritySummary) Failed() bool {
	return s.MissingFiles > 0 || s.SizeMismatchFiles > 0 || s.OperationalFailures > 0
}

// Verify checks that every parquet file listed in the snapshot manifest is
// present in the store with the recorded size.
func Verify(ctx context.Context, store storage.ObjectStore, name string) (IntegritySummary, error) {
	if store == nil {
		return IntegritySummary{}, fmt.Errorf("object store is required")
	}
	manifest, err := LoadManifest(ctx, store, name)
	if err != nil {
		verifyRunsTotal.WithLabelValues("failed").Inc()
		return IntegritySummary{}, err
	}

	var summary IntegritySummary
	issueSamples := make([]string, 0, maxIssueSamples)
	issueCount := 0
	addIssue := func(message string) {
		issueCount++
		if len(issueSamples) < maxIssueSamples {
			issueSamples = append(issueSamples, message)
		}
	}

	for _, table := range manifest.Tables {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.TablesChecked++
		info, err := store.Stat(ctx, table.Path)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				summary.MissingFiles++
				addIssue(fmt.Sprintf("table %s missing file %s", table.Table, table.Path))
				continue
			}
			summary.OperationalFailures++
			addIssue(fmt.Sprintf("table %s stat file %s: %v", table.Table, table.Path, err))
			continue
		}
		if info.Size != table.SizeBytes {
			summary.SizeMismatchFiles++
			addIssue(fmt.Sprintf("table %s size mismatch for %s (expected=%d actual=%d)", table.Table, table.Path, table.SizeBytes, info.Size))
		}
	}

	verifyFilesCheckedTotal.Add(float64(summary.TablesChecked))
	if summary.MissingFiles > 0 {
		verifyMissingFilesTotal.Add(float64(summary.MissingFiles))
	}
	if summary.SizeMismatchFiles > 0 {
		verifySizeMismatchFilesTotal.Add(float64(summary.SizeMismatchFiles))
	}
	if summary.Failed() {
		verifyRunsTotal.WithLabelValues("failed").Inc()
		extra := issueCount - len(issueSamples)
		if extra > 0 {
			return summary, fmt.Errorf("snapshot %q has %d issue(s): %s; ... plus %d more", name, issueCount, strings.Join(issueSamples, "; "), extra)
		}
		return summary, fmt.Errorf("snapshot %q has %d issue(s): %s", name, issueCount, strings.Join(issueSamples, "; "))
	}
	verifyRunsTotal.WithLabelValues("completed").Inc()
	return summary, nil
}
