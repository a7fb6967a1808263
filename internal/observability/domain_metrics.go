package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	chatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querychat_chat_turns_total",
			Help: "Total number of chat turns by outcome.",
		},
		[]string{"outcome"},
	)
	translateDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querychat_translate_duration_seconds",
			Help:    "Language model translation latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querychat_query_duration_seconds",
			Help:    "Generated SQL execution latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	queryTruncatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querychat_query_truncated_total",
			Help: "Total number of query results cut at the row limit.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		chatTurnsTotal,
		translateDurationSeconds,
		queryDurationSeconds,
		queryTruncatedTotal,
	)
}

func ObserveChatTurn(outcome string) {
	chatTurnsTotal.WithLabelValues(outcome).Inc()
}

func ObserveTranslate(elapsed time.Duration) {
	translateDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveQuery(elapsed time.Duration, truncated bool) {
	queryDurationSeconds.Observe(elapsed.Seconds())
	if truncated {
		queryTruncatedTotal.Inc()
	}
}
