package store

import (
	"context"

	"matchhub/internal/rating"
)

func (s *Store) RecentMatches(ctx context.Context, accountID string, limit int) ([]rating.MatchRecord, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, session_id, period, host_account_id, host_name,
		guest_account_id, guest_name, host_score, guest_score, winner_account_id,
		host_rating_before, host_rating_after, guest_rating_before, guest_rating_after, duration_ms, created_at
		FROM matches
		WHERE host_account_id = $1 OR guest_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rating.MatchRecord, 0)
	for rows.Next() {
		var m rating.MatchRecord
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Period, &m.HostAccountID, &m.HostName,
			&m.GuestAccountID, &m.GuestName, &m.HostScore, &m.GuestScore, &m.WinnerAccountID,
			&m.HostRatingBefore, &m.HostRatingAfter, &m.GuestRatingBefore, &m.GuestRatingAfter,
			&m.DurationMS, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ rating.Repository = (*Store)(nil)
