package mcpserver

const (
	defaultPageLimit    = 50
	maxLeaderboardLimit = 100
	defaultScope        = "period"
)

func clampPagination(limit, offset, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func normalizeScope(v string) string {
	if v == "" {
		return defaultScope
	}
	return v
}

func isAllowedScope(v string) bool {
	return v == "period" || v == "lifetime"
}
