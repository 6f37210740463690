package public

import (
	"context"
	"errors"

	"matchhub/internal/coordinator"
	"matchhub/internal/rating"
)

// Coordinator is the read-only view of live state the public API needs.
type Coordinator interface {
	PublicLobby() coordinator.LobbySnapshot
	Sessions() []coordinator.SessionSummary
	SessionState(sessionID string) (coordinator.SessionState, error)
}

type Ratings interface {
	CurrentPeriod() rating.Period
	Leaderboard(ctx context.Context, q rating.LeaderboardQuery) ([]rating.Standing, error)
	PlayerStanding(ctx context.Context, accountID string, scope rating.Scope, period string) (rating.Standing, error)
	RecentMatches(ctx context.Context, accountID string, limit int) ([]rating.MatchRecord, error)
}

type Service struct {
	coord   Coordinator
	ratings Ratings
}

const leaderboardMaxRows = 100

func NewService(coord Coordinator, ratings Ratings) *Service {
	return &Service{coord: coord, ratings: ratings}
}

func (s *Service) Lobby() *LobbyResponse {
	snap := s.coord.PublicLobby()
	return &LobbyResponse{Available: snap.Available, Challenging: snap.Challenging, Sessions: snap.Sessions}
}

func (s *Service) Sessions() *SessionsResponse {
	return &SessionsResponse{Items: s.coord.Sessions()}
}

func (s *Service) SessionState(sessionID string) (*coordinator.SessionState, error) {
	if sessionID == "" {
		return nil, ErrInvalidRequest
	}
	st, err := s.coord.SessionState(sessionID)
	if errors.Is(err, coordinator.ErrGameNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Service) Leaderboard(ctx context.Context, q LeaderboardQuery, limit, offset int) (*LeaderboardResponse, error) {
	scope, err := rating.ParseScope(q.Scope)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	period := q.Period
	if scope == rating.ScopePeriod && period == "" {
		period = s.ratings.CurrentPeriod().Key
	}
	if scope == rating.ScopeLifetime {
		period = ""
	}
	limit, ok := clampLeaderboardPage(limit, offset)
	if !ok {
		return &LeaderboardResponse{Scope: string(scope), Period: period, Items: []LeaderboardItem{}, Limit: limit, Offset: offset}, nil
	}
	rows, err := s.ratings.Leaderboard(ctx, rating.LeaderboardQuery{Scope: scope, Period: period, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardItem, 0, len(rows))
	for idx, it := range rows {
		out = append(out, LeaderboardItem{
			Rank:        offset + idx + 1,
			AccountID:   it.AccountID,
			DisplayName: it.DisplayName,
			Rating:      it.Rating,
			GamesPlayed: it.GamesPlayed,
			Wins:        it.Wins,
			Losses:      it.Losses,
			Draws:       it.Draws,
			GoalDiff:    it.GoalDiff(),
			UpdatedAt:   it.UpdatedAt,
		})
	}
	return &LeaderboardResponse{Scope: string(scope), Period: period, Items: out, Limit: limit, Offset: offset}, nil
}

// PlayerRating returns the lifetime aggregate and, when the player has
// played in it, the requested (default current) period.
func (s *Service) PlayerRating(ctx context.Context, accountID, period string) (*PlayerRatingResponse, error) {
	if accountID == "" {
		return nil, ErrInvalidRequest
	}
	if period == "" {
		period = s.ratings.CurrentPeriod().Key
	}
	lifetime, err := s.ratings.PlayerStanding(ctx, accountID, rating.ScopeLifetime, "")
	if errors.Is(err, rating.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := &PlayerRatingResponse{AccountID: accountID, Period: period, Lifetime: lifetime}
	current, err := s.ratings.PlayerStanding(ctx, accountID, rating.ScopePeriod, period)
	switch {
	case err == nil:
		resp.Current = &current
	case !errors.Is(err, rating.ErrNotFound):
		return nil, err
	}
	return resp, nil
}

func (s *Service) PlayerMatches(ctx context.Context, accountID string, limit int) (*MatchesResponse, error) {
	if accountID == "" {
		return nil, ErrInvalidRequest
	}
	if limit <= 0 || limit > leaderboardMaxRows {
		limit = 20
	}
	items, err := s.ratings.RecentMatches(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []rating.MatchRecord{}
	}
	return &MatchesResponse{AccountID: accountID, Items: items, Limit: limit}, nil
}

func clampLeaderboardPage(limit, offset int) (int, bool) {
	if offset < 0 || offset >= leaderboardMaxRows {
		return 0, false
	}
	if limit <= 0 {
		limit = 50
	}
	remaining := leaderboardMaxRows - offset
	if limit > remaining {
		limit = remaining
	}
	return limit, true
}
