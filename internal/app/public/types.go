package public

import (
	"time"

	"matchhub/internal/coordinator"
	"matchhub/internal/rating"
)

type LobbyResponse struct {
	Available   []coordinator.LobbyPlayer    `json:"available"`
	Challenging []coordinator.LobbyPlayer    `json:"challenging"`
	Sessions    []coordinator.SessionSummary `json:"sessions"`
}

type SessionsResponse struct {
	Items []coordinator.SessionSummary `json:"items"`
}

type LeaderboardQuery struct {
	Scope  string
	Period string
}

type LeaderboardResponse struct {
	Scope  string            `json:"scope"`
	Period string            `json:"period,omitempty"`
	Items  []LeaderboardItem `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type LeaderboardItem struct {
	Rank        int       `json:"rank"`
	AccountID   string    `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Rating      int       `json:"rating"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	GoalDiff    int       `json:"goal_diff"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PlayerRatingResponse struct {
	AccountID string           `json:"account_id"`
	Period    string           `json:"period"`
	Current   *rating.Standing `json:"current,omitempty"`
	Lifetime  rating.Standing  `json:"lifetime"`
}

type MatchesResponse struct {
	AccountID string               `json:"account_id"`
	Items     []rating.MatchRecord `json:"items"`
	Limit     int                  `json:"limit"`
}
