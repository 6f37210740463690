package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"matchhub/internal/rating"

	"github.com/jackc/pgx/v5"
)

const standingColumns = `account_id, display_name, games_played, wins, losses, draws,
	goals_for, goals_against, rating, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStanding(row rowScanner, period string) (rating.Standing, error) {
	var st rating.Standing
	err := row.Scan(&st.AccountID, &st.DisplayName, &st.GamesPlayed, &st.Wins, &st.Losses, &st.Draws,
		&st.GoalsFor, &st.GoalsAgainst, &st.Rating, &st.UpdatedAt)
	st.Period = period
	return st, err
}

// ApplyMatch updates both players' period and lifetime aggregates and writes
// the match row in one transaction. Rows are locked in account id order.
func (s *Store) ApplyMatch(ctx context.Context, req rating.ApplyRequest) (rating.Applied, error) {
	in := req.Input
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return rating.Applied{}, err
	}
	defer tx.Rollback(ctx)

	participants := []rating.Participant{in.Host, in.Guest}
	sort.Slice(participants, func(i, j int) bool { return participants[i].AccountID < participants[j].AccountID })
	for _, p := range participants {
		if err := ensureRows(ctx, tx, p, req.Period, req.DefaultRating); err != nil {
			return rating.Applied{}, err
		}
	}

	locked := map[string][2]rating.Standing{}
	for _, p := range participants {
		per, err := lockPeriod(ctx, tx, p.AccountID, req.Period.Key)
		if err != nil {
			return rating.Applied{}, err
		}
		life, err := lockLifetime(ctx, tx, p.AccountID)
		if err != nil {
			return rating.Applied{}, err
		}
		locked[p.AccountID] = [2]rating.Standing{per, life}
	}
	hp, hl := locked[in.Host.AccountID][0], locked[in.Host.AccountID][1]
	gp, gl := locked[in.Guest.AccountID][0], locked[in.Guest.AccountID][1]

	out := rating.Applied{
		MatchID: NewPrefixedID("mat"),
		Host:    rating.RatingChange{AccountID: in.Host.AccountID, Before: hp.Rating, LifetimeBefore: hl.Rating},
		Guest:   rating.RatingChange{AccountID: in.Guest.AccountID, Before: gp.Rating, LifetimeBefore: gl.Rating},
	}
	nh, ng := req.Update(hp.Rating, gp.Rating)
	lh, lg := req.Update(hl.Rating, gl.Rating)
	at := in.EndedAt
	hp.Record(in.Host.Score, in.Guest.Score, nh, at)
	gp.Record(in.Guest.Score, in.Host.Score, ng, at)
	hl.Record(in.Host.Score, in.Guest.Score, lh, at)
	gl.Record(in.Guest.Score, in.Host.Score, lg, at)
	out.Host.After, out.Guest.After = nh, ng
	out.Host.LifetimeAfter, out.Guest.LifetimeAfter = lh, lg

	for _, st := range []rating.Standing{hp, gp} {
		if err := savePeriod(ctx, tx, st); err != nil {
			return rating.Applied{}, err
		}
	}
	for _, st := range []rating.Standing{hl, gl} {
		if err := saveLifetime(ctx, tx, st); err != nil {
			return rating.Applied{}, err
		}
	}

	winner := ""
	switch {
	case in.Host.Score > in.Guest.Score:
		winner = in.Host.AccountID
	case in.Guest.Score > in.Host.Score:
		winner = in.Guest.AccountID
	}
	if _, err := tx.Exec(ctx, `INSERT INTO matches (id, session_id, period, host_account_id, host_name,
		guest_account_id, guest_name, host_score, guest_score, winner_account_id,
		host_rating_before, host_rating_after, guest_rating_before, guest_rating_after, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		out.MatchID, in.SessionID, req.Period.Key, in.Host.AccountID, in.Host.DisplayName,
		in.Guest.AccountID, in.Guest.DisplayName, in.Host.Score, in.Guest.Score, winner,
		out.Host.Before, nh, out.Guest.Before, ng, in.DurationMS, at,
	); err != nil {
		return rating.Applied{}, fmt.Errorf("insert match: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return rating.Applied{}, err
	}
	return out, nil
}

func ensureRows(ctx context.Context, tx pgx.Tx, p rating.Participant, period rating.Period, def int) error {
	if _, err := tx.Exec(ctx, `INSERT INTO rating_periods (account_id, period, period_start, display_name, rating)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (account_id, period) DO NOTHING`,
		p.AccountID, period.Key, period.Start, p.DisplayName, def); err != nil {
		return fmt.Errorf("ensure period row: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO rating_lifetime (account_id, display_name, rating)
		VALUES ($1, $2, $3) ON CONFLICT (account_id) DO NOTHING`,
		p.AccountID, p.DisplayName, def); err != nil {
		return fmt.Errorf("ensure lifetime row: %w", err)
	}
	if p.DisplayName == "" {
		return nil
	}
	if _, err := tx.Exec(ctx, `UPDATE rating_periods SET display_name = $3 WHERE account_id = $1 AND period = $2`,
		p.AccountID, period.Key, p.DisplayName); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `UPDATE rating_lifetime SET display_name = $2 WHERE account_id = $1`, p.AccountID, p.DisplayName)
	return err
}

func lockPeriod(ctx context.Context, tx pgx.Tx, accountID, period string) (rating.Standing, error) {
	row := tx.QueryRow(ctx, `SELECT `+standingColumns+` FROM rating_periods
		WHERE account_id = $1 AND period = $2 FOR UPDATE`, accountID, period)
	st, err := scanStanding(row, period)
	return st, mapNotFound(err)
}

func lockLifetime(ctx context.Context, tx pgx.Tx, accountID string) (rating.Standing, error) {
	row := tx.QueryRow(ctx, `SELECT `+standingColumns+` FROM rating_lifetime
		WHERE account_id = $1 FOR UPDATE`, accountID)
	st, err := scanStanding(row, "")
	return st, mapNotFound(err)
}

func savePeriod(ctx context.Context, tx pgx.Tx, st rating.Standing) error {
	_, err := tx.Exec(ctx, `UPDATE rating_periods SET games_played = $3, wins = $4, losses = $5, draws = $6,
		goals_for = $7, goals_against = $8, rating = $9, updated_at = $10
		WHERE account_id = $1 AND period = $2`,
		st.AccountID, st.Period, st.GamesPlayed, st.Wins, st.Losses, st.Draws,
		st.GoalsFor, st.GoalsAgainst, st.Rating, st.UpdatedAt)
	return err
}

func saveLifetime(ctx context.Context, tx pgx.Tx, st rating.Standing) error {
	_, err := tx.Exec(ctx, `UPDATE rating_lifetime SET games_played = $2, wins = $3, losses = $4, draws = $5,
		goals_for = $6, goals_against = $7, rating = $8, updated_at = $9
		WHERE account_id = $1`,
		st.AccountID, st.GamesPlayed, st.Wins, st.Losses, st.Draws,
		st.GoalsFor, st.GoalsAgainst, st.Rating, st.UpdatedAt)
	return err
}

const boardOrder = ` ORDER BY rating DESC, wins DESC, (goals_for - goals_against) DESC, account_id ASC LIMIT $%d OFFSET $%d`

func (s *Store) Leaderboard(ctx context.Context, q rating.LeaderboardQuery) ([]rating.Standing, error) {
	var (
		rows pgx.Rows
		err  error
	)
	switch q.Scope {
	case rating.ScopeLifetime:
		rows, err = s.Pool.Query(ctx, `SELECT `+standingColumns+` FROM rating_lifetime`+fmt.Sprintf(boardOrder, 1, 2),
			q.Limit, q.Offset)
	case rating.ScopePeriod:
		rows, err = s.Pool.Query(ctx, `SELECT `+standingColumns+` FROM rating_periods WHERE period = $1`+fmt.Sprintf(boardOrder, 2, 3),
			q.Period, q.Limit, q.Offset)
	default:
		return nil, rating.ErrInvalidScope
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rating.Standing, 0, q.Limit)
	for rows.Next() {
		st, err := scanStanding(rows, q.Period)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Standing(ctx context.Context, accountID string, scope rating.Scope, period string) (rating.Standing, error) {
	if scope == rating.ScopeLifetime {
		row := s.Pool.QueryRow(ctx, `SELECT `+standingColumns+` FROM rating_lifetime WHERE account_id = $1`, accountID)
		st, err := scanStanding(row, "")
		return st, mapNotFound(err)
	}
	row := s.Pool.QueryRow(ctx, `SELECT `+standingColumns+` FROM rating_periods
		WHERE account_id = $1 AND period = $2`, accountID, period)
	st, err := scanStanding(row, period)
	return st, mapNotFound(err)
}

func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM rating_periods WHERE period_start < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
