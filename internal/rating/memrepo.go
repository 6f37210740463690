package rating

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type periodRow struct {
	standing Standing
	start    time.Time
}

// MemoryRepository keeps aggregates in process memory. It backs the server
// when no database is configured and the tests of packages above rating.
type MemoryRepository struct {
	mu       sync.Mutex
	periods  map[string]*periodRow
	lifetime map[string]*Standing
	matches  []MatchRecord
	seq      int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		periods:  map[string]*periodRow{},
		lifetime: map[string]*Standing{},
	}
}

func periodKey(accountID, period string) string { return period + "|" + accountID }

func (r *MemoryRepository) ApplyMatch(_ context.Context, req ApplyRequest) (Applied, error) {
	in := req.Input
	r.mu.Lock()
	defer r.mu.Unlock()

	hp := r.periodRowLocked(in.Host, req.Period, req.DefaultRating)
	gp := r.periodRowLocked(in.Guest, req.Period, req.DefaultRating)
	hl := r.lifetimeLocked(in.Host, req.DefaultRating)
	gl := r.lifetimeLocked(in.Guest, req.DefaultRating)

	out := Applied{
		Host:  RatingChange{AccountID: in.Host.AccountID, Before: hp.standing.Rating, LifetimeBefore: hl.Rating},
		Guest: RatingChange{AccountID: in.Guest.AccountID, Before: gp.standing.Rating, LifetimeBefore: gl.Rating},
	}
	nh, ng := req.Update(hp.standing.Rating, gp.standing.Rating)
	lh, lg := req.Update(hl.Rating, gl.Rating)

	at := in.EndedAt
	hp.standing.Record(in.Host.Score, in.Guest.Score, nh, at)
	gp.standing.Record(in.Guest.Score, in.Host.Score, ng, at)
	hl.Record(in.Host.Score, in.Guest.Score, lh, at)
	gl.Record(in.Guest.Score, in.Host.Score, lg, at)
	out.Host.After, out.Guest.After = nh, ng
	out.Host.LifetimeAfter, out.Guest.LifetimeAfter = lh, lg

	r.seq++
	out.MatchID = fmt.Sprintf("m%06d", r.seq)
	r.matches = append(r.matches, MatchRecord{
		ID:                out.MatchID,
		SessionID:         in.SessionID,
		Period:            req.Period.Key,
		HostAccountID:     in.Host.AccountID,
		HostName:          in.Host.DisplayName,
		GuestAccountID:    in.Guest.AccountID,
		GuestName:         in.Guest.DisplayName,
		HostScore:         in.Host.Score,
		GuestScore:        in.Guest.Score,
		WinnerAccountID:   winnerOf(in),
		HostRatingBefore:  out.Host.Before,
		HostRatingAfter:   nh,
		GuestRatingBefore: out.Guest.Before,
		GuestRatingAfter:  ng,
		DurationMS:        in.DurationMS,
		CreatedAt:         at,
	})
	return out, nil
}

func (r *MemoryRepository) periodRowLocked(p Participant, period Period, def int) *periodRow {
	key := periodKey(p.AccountID, period.Key)
	row, ok := r.periods[key]
	if !ok {
		row = &periodRow{
			standing: Standing{AccountID: p.AccountID, Period: period.Key, Rating: def},
			start:    period.Start,
		}
		r.periods[key] = row
	}
	if p.DisplayName != "" {
		row.standing.DisplayName = p.DisplayName
	}
	return row
}

func (r *MemoryRepository) lifetimeLocked(p Participant, def int) *Standing {
	st, ok := r.lifetime[p.AccountID]
	if !ok {
		st = &Standing{AccountID: p.AccountID, Rating: def}
		r.lifetime[p.AccountID] = st
	}
	if p.DisplayName != "" {
		st.DisplayName = p.DisplayName
	}
	return st
}

func (r *MemoryRepository) Leaderboard(_ context.Context, q LeaderboardQuery) ([]Standing, error) {
	r.mu.Lock()
	rows := make([]Standing, 0)
	switch q.Scope {
	case ScopeLifetime:
		for _, st := range r.lifetime {
			rows = append(rows, *st)
		}
	case ScopePeriod:
		for _, row := range r.periods {
			if row.standing.Period == q.Period {
				rows = append(rows, row.standing)
			}
		}
	default:
		r.mu.Unlock()
		return nil, ErrInvalidScope
	}
	r.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return Less(rows[i], rows[j]) })
	return page(rows, q.Limit, q.Offset), nil
}

func (r *MemoryRepository) Standing(_ context.Context, accountID string, scope Scope, period string) (Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope == ScopeLifetime {
		if st, ok := r.lifetime[accountID]; ok {
			return *st, nil
		}
		return Standing{}, ErrNotFound
	}
	if row, ok := r.periods[periodKey(accountID, period)]; ok {
		return row.standing, nil
	}
	return Standing{}, ErrNotFound
}

func (r *MemoryRepository) RecentMatches(_ context.Context, accountID string, limit int) ([]MatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MatchRecord, 0)
	for i := len(r.matches) - 1; i >= 0; i-- {
		m := r.matches[i]
		if m.HostAccountID != accountID && m.GuestAccountID != accountID {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, row := range r.periods {
		if row.start.Before(cutoff) {
			delete(r.periods, key)
			n++
		}
	}
	return n, nil
}

func page(rows []Standing, limit, offset int) []Standing {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []Standing{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func winnerOf(in MatchInput) string {
	switch {
	case in.Host.Score > in.Guest.Score:
		return in.Host.AccountID
	case in.Guest.Score > in.Host.Score:
		return in.Guest.AccountID
	default:
		return ""
	}
}
