package snapshot

import "github.com/prometheus/client_golang/prometheus"

var (
	verifyRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querychat_snapshot_verify_runs_total",
			Help: "Total number of snapshot verification runs by status.",
		},
		[]string{"status"},
	)
	verifyFilesCheckedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querychat_snapshot_verify_files_checked_total",
			Help: "Total number of snapshot table files checked by verification.",
		},
	)
	verifyMissingFilesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querychat_snapshot_verify_missing_files_total",
			Help: "Total number of missing snapshot table files detected by verification.",
		},
	)
	verifySizeMismatchFilesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querychat_snapshot_verify_size_mismatch_files_total",
			Help: "Total number of snapshot table files whose size differs from the manifest.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		verifyRunsTotal,
		verifyFilesCheckedTotal,
		verifyMissingFilesTotal,
		verifySizeMismatchFilesTotal,
	)
}
