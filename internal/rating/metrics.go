package rating

import "expvar"

var (
	matchesRankedTotal        = expvar.NewInt("rating_matches_ranked_total")
	matchesUnrankedTotal      = expvar.NewInt("rating_matches_unranked_total")
	matchesFailedTotal        = expvar.NewInt("rating_matches_failed_total")
	prunedRowsTotal           = expvar.NewInt("rating_pruned_rows_total")
	leaderboardCacheHitTotal  = expvar.NewInt("rating_leaderboard_cache_hit_total")
	leaderboardCacheMissTotal = expvar.NewInt("rating_leaderboard_cache_miss_total")
)
