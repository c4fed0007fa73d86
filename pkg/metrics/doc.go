/*
Package metrics defines Prometheus metrics for maintsync.

maintsync runs once per scheduler tick and exits, so nothing scrapes it.
Instead the command writes Registry to a file picked up by node_exporter's
textfile collector:

	node_exporter --collector.textfile.directory=/var/lib/node_exporter
	maintsync --metrics-textfile=/var/lib/node_exporter/maintsync.prom

Metrics:

	maintsync_pass_duration_seconds                    histogram
	maintsync_passes_total{result}                     counter
	maintsync_last_successful_pass_timestamp_seconds   gauge
	maintsync_hosts                                    gauge
	maintsync_actions_total{action}                    counter (create, extend, delete, reap)
	maintsync_hosts_skipped_total{reason}              counter
	maintsync_api_requests_total{method,status}        counter
	maintsync_api_request_duration_seconds{method}     histogram

Timing follows the Timer pattern:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PassDuration)

Counters only cover the current process. Alert on the last successful pass
timestamp going stale rather than on counter rates.
*/
package metrics
