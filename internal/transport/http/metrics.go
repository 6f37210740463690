package httptransport

import "expvar"

var (
	metricLeaderboardQueryTotal  = expvar.NewInt("http_leaderboard_query_total")
	metricLeaderboardQueryErrors = expvar.NewInt("http_leaderboard_query_errors_total")
	metricLeaderboardQueryMS     = expvar.NewInt("http_leaderboard_query_ms")

	metricAdminSweepTotal   = expvar.NewInt("http_admin_sweep_total")
	metricAdminPruneTotal   = expvar.NewInt("http_admin_prune_total")
	metricAdminUnauthorized = expvar.NewInt("http_admin_unauthorized_total")
)
