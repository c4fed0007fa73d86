package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds maintsync metrics only. The process runs for a few seconds,
// so metrics are written to a node_exporter textfile rather than served, and
// Go runtime collectors would collide with node_exporter's own.
var Registry = prometheus.NewRegistry()

var (
	// Reconciliation metrics
	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maintsync_pass_duration_seconds",
			Help:    "Duration of a full reconciliation pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintsync_passes_total",
			Help: "Total number of reconciliation passes by result",
		},
		[]string{"result"},
	)

	LastSuccessfulPass = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "maintsync_last_successful_pass_timestamp_seconds",
			Help: "Unix time of the last pass that completed without a fatal error",
		},
	)

	HostsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "maintsync_hosts",
			Help: "Number of hosts evaluated in the last pass",
		},
	)

	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintsync_actions_total",
			Help: "Total number of maintenance actions applied by kind",
		},
		[]string{"action"},
	)

	HostsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintsync_hosts_skipped_total",
			Help: "Total number of hosts skipped by reason",
		},
		[]string{"reason"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintsync_api_requests_total",
			Help: "Total number of monitoring API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maintsync_api_request_duration_seconds",
			Help:    "Monitoring API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	// Register all metrics
	Registry.MustRegister(PassDuration)
	Registry.MustRegister(PassesTotal)
	Registry.MustRegister(LastSuccessfulPass)
	Registry.MustRegister(HostsTotal)
	Registry.MustRegister(ActionsTotal)
	Registry.MustRegister(HostsSkipped)
	Registry.MustRegister(APIRequestsTotal)
	Registry.MustRegister(APIRequestDuration)
}

// WriteTextfile writes the current metric values in the text exposition
// format, atomically replacing path. Used with node_exporter's textfile
// collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
