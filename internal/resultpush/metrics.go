package resultpush

import "expvar"

var (
	metricPushQueuedTotal       = expvar.NewInt("resultpush_queued_total")
	metricPushDroppedTotal      = expvar.NewInt("resultpush_dropped_total")
	metricPushRetryTotal        = expvar.NewInt("resultpush_retry_total")
	metricPushRetryDroppedTotal = expvar.NewInt("resultpush_retry_dropped_total")
	metricPushSentTotal         = expvar.NewInt("resultpush_sent_total")
	metricPushFailedTotal       = expvar.NewInt("resultpush_failed_total")
	metricPushCircuitOpenTotal  = expvar.NewInt("resultpush_circuit_open_total")
	metricPushQueueLen          = expvar.NewInt("resultpush_queue_len")
	metricPushConfigReloadTotal = expvar.NewInt("resultpush_config_reload_total")
	metricPushConfigReloadError = expvar.NewInt("resultpush_config_reload_error_total")
)
