package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Upstream and download metrics
var (
	// UpstreamAttemptsTotal counts individual HTTP attempts per catalog and
	// outcome (success, network, timeout, bad_response).
	UpstreamAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_attempts_total",
			Help: "Total number of upstream HTTP attempts.",
		},
		[]string{"catalog", "outcome"},
	)

	// UpstreamRetriesTotal counts retried attempts per catalog.
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Total number of upstream retries.",
		},
		[]string{"catalog"},
	)

	// SubtitleDownloadsTotal counts subtitle byte fetches per catalog and status.
	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_downloads_total",
			Help: "Total number of subtitle downloads.",
		},
		[]string{"catalog", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamAttemptsTotal,
		UpstreamRetriesTotal,
		SubtitleDownloadsTotal,
	)
}
