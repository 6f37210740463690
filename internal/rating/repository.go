package rating

import (
	"context"
	"time"
)

// UpdateFunc maps the host and guest ratings before a match to the ratings
// after it.
type UpdateFunc func(host, guest int) (int, int)

type ApplyRequest struct {
	Period        Period
	Input         MatchInput
	DefaultRating int
	Update        UpdateFunc
}

type Applied struct {
	MatchID string
	Host    RatingChange
	Guest   RatingChange
}

type LeaderboardQuery struct {
	Scope  Scope
	Period string
	Limit  int
	Offset int
}

// Repository persists aggregates. ApplyMatch must update both players'
// period and lifetime aggregates and append the match record atomically.
type Repository interface {
	ApplyMatch(ctx context.Context, req ApplyRequest) (Applied, error)
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]Standing, error)
	Standing(ctx context.Context, accountID string, scope Scope, period string) (Standing, error)
	RecentMatches(ctx context.Context, accountID string, limit int) ([]MatchRecord, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
