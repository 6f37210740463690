package rating

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidScope = errors.New("invalid_scope")
)

type Scope string

const (
	ScopePeriod   Scope = "period"
	ScopeLifetime Scope = "lifetime"
)

func ParseScope(v string) (Scope, error) {
	switch Scope(v) {
	case "", ScopePeriod:
		return ScopePeriod, nil
	case ScopeLifetime:
		return ScopeLifetime, nil
	default:
		return "", ErrInvalidScope
	}
}

// Participant is one side of a finished match. An empty AccountID marks a
// guest.
type Participant struct {
	AccountID   string
	DisplayName string
	Score       int
}

func (p Participant) Guest() bool { return p.AccountID == "" }

type MatchInput struct {
	SessionID  string
	Host       Participant
	Guest      Participant
	DurationMS int64
	EndedAt    time.Time
}

type Standing struct {
	AccountID    string    `json:"account_id"`
	DisplayName  string    `json:"display_name"`
	Period       string    `json:"period,omitempty"`
	GamesPlayed  int       `json:"games_played"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Draws        int       `json:"draws"`
	GoalsFor     int       `json:"goals_for"`
	GoalsAgainst int       `json:"goals_against"`
	Rating       int       `json:"rating"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s Standing) GoalDiff() int { return s.GoalsFor - s.GoalsAgainst }

// Record folds one finished match into the aggregate.
func (s *Standing) Record(goalsFor, goalsAgainst, newRating int, at time.Time) {
	s.GamesPlayed++
	switch {
	case goalsFor > goalsAgainst:
		s.Wins++
	case goalsFor < goalsAgainst:
		s.Losses++
	default:
		s.Draws++
	}
	s.GoalsFor += goalsFor
	s.GoalsAgainst += goalsAgainst
	s.Rating = newRating
	s.UpdatedAt = at
}

// Less orders standings for leaderboards: rating, then wins, then goal
// difference, then account id for a stable page order.
func Less(a, b Standing) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	if a.GoalDiff() != b.GoalDiff() {
		return a.GoalDiff() > b.GoalDiff()
	}
	return a.AccountID < b.AccountID
}

type RatingChange struct {
	AccountID      string `json:"account_id"`
	Before         int    `json:"before"`
	After          int    `json:"after"`
	LifetimeBefore int    `json:"lifetime_before"`
	LifetimeAfter  int    `json:"lifetime_after"`
}

const (
	StatusRanked   = "ranked"
	StatusUnranked = "unranked"
)

type MatchResult struct {
	SessionID       string       `json:"session_id"`
	MatchID         string       `json:"match_id,omitempty"`
	Status          string       `json:"status"`
	Ranked          bool         `json:"ranked"`
	Draw            bool         `json:"draw"`
	WinnerAccountID string       `json:"winner_account_id,omitempty"`
	Period          string       `json:"period,omitempty"`
	Host            RatingChange `json:"host"`
	Guest           RatingChange `json:"guest"`
}

type MatchRecord struct {
	ID                string    `json:"match_id"`
	SessionID         string    `json:"session_id"`
	Period            string    `json:"period"`
	HostAccountID     string    `json:"host_account_id"`
	HostName          string    `json:"host_name"`
	GuestAccountID    string    `json:"guest_account_id"`
	GuestName         string    `json:"guest_name"`
	HostScore         int       `json:"host_score"`
	GuestScore        int       `json:"guest_score"`
	WinnerAccountID   string    `json:"winner_account_id,omitempty"`
	HostRatingBefore  int       `json:"host_rating_before"`
	HostRatingAfter   int       `json:"host_rating_after"`
	GuestRatingBefore int       `json:"guest_rating_before"`
	GuestRatingAfter  int       `json:"guest_rating_after"`
	DurationMS        int64     `json:"duration_ms"`
	CreatedAt         time.Time `json:"created_at"`
}
