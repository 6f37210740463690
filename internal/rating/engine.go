package rating

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	KFactor          int
	DefaultRating    int
	Period           PeriodLength
	RetentionPeriods int
}

func DefaultConfig() Config {
	return Config{KFactor: 32, DefaultRating: 1200, Period: Weekly, RetentionPeriods: 12}
}

// LeaderboardCache stores leaderboard pages under a version. Invalidate bumps
// the version so pages written before it are never served again.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) ([]Standing, int64, bool, error)
	Set(ctx context.Context, key string, version int64, rows []Standing) error
	Invalidate(ctx context.Context) error
}

type Engine struct {
	repo  Repository
	cache LeaderboardCache
	cfg   Config
	now   func() time.Time
}

type Option func(*Engine)

func WithCache(c LeaderboardCache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(repo Repository, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.KFactor <= 0 {
		cfg.KFactor = def.KFactor
	}
	if cfg.DefaultRating <= 0 {
		cfg.DefaultRating = def.DefaultRating
	}
	if cfg.Period == "" {
		cfg.Period = def.Period
	}
	if cfg.RetentionPeriods <= 0 {
		cfg.RetentionPeriods = def.RetentionPeriods
	}
	e := &Engine{repo: repo, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) CurrentPeriod() Period {
	return PeriodFor(e.now(), e.cfg.Period)
}

// RecordMatch folds a finished match into the aggregates. Matches with a
// guest on either side are reported as unranked and never persisted.
func (e *Engine) RecordMatch(ctx context.Context, in MatchInput) (MatchResult, error) {
	res := MatchResult{
		SessionID: in.SessionID,
		Status:    StatusUnranked,
		Draw:      in.Host.Score == in.Guest.Score,
		Host:      RatingChange{AccountID: in.Host.AccountID},
		Guest:     RatingChange{AccountID: in.Guest.AccountID},
	}
	if in.Host.Guest() || in.Guest.Guest() || in.Host.AccountID == in.Guest.AccountID {
		matchesUnrankedTotal.Add(1)
		return res, nil
	}
	if in.EndedAt.IsZero() {
		in.EndedAt = e.now()
	}
	period := PeriodFor(in.EndedAt, e.cfg.Period)
	k := e.cfg.KFactor
	hs, gs := in.Host.Score, in.Guest.Score
	applied, err := e.repo.ApplyMatch(ctx, ApplyRequest{
		Period:        period,
		Input:         in,
		DefaultRating: e.cfg.DefaultRating,
		Update: func(host, guest int) (int, int) {
			return updateByScore(host, guest, hs, gs, k)
		},
	})
	if err != nil {
		matchesFailedTotal.Add(1)
		return MatchResult{}, fmt.Errorf("apply match %s: %w", in.SessionID, err)
	}
	matchesRankedTotal.Add(1)
	res.Status = StatusRanked
	res.Ranked = true
	res.MatchID = applied.MatchID
	res.Period = period.Key
	res.Host = applied.Host
	res.Guest = applied.Guest
	res.WinnerAccountID = winnerOf(in)

	if e.cache != nil {
		if err := e.cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("leaderboard_cache_invalidate_failed")
		}
	}
	log.Info().
		Str("session_id", in.SessionID).
		Str("match_id", applied.MatchID).
		Str("period", period.Key).
		Int("host_rating", applied.Host.After).
		Int("guest_rating", applied.Guest.After).
		Msg("match_recorded")
	return res, nil
}

// Leaderboard returns a sorted page. A period scope without an explicit
// period means the current one.
func (e *Engine) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]Standing, error) {
	if q.Scope == "" {
		q.Scope = ScopePeriod
	}
	if q.Scope != ScopePeriod && q.Scope != ScopeLifetime {
		return nil, ErrInvalidScope
	}
	if q.Scope == ScopePeriod && q.Period == "" {
		q.Period = e.CurrentPeriod().Key
	}
	if q.Scope == ScopeLifetime {
		q.Period = ""
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	key := cacheKey(q)
	var version int64
	if e.cache != nil {
		rows, v, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("leaderboard_cache_get_failed")
		} else if ok {
			leaderboardCacheHitTotal.Add(1)
			return rows, nil
		}
		version = v
		leaderboardCacheMissTotal.Add(1)
	}
	rows, err := e.repo.Leaderboard(ctx, q)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		if err := e.cache.Set(ctx, key, version, rows); err != nil {
			log.Warn().Err(err).Msg("leaderboard_cache_set_failed")
		}
	}
	return rows, nil
}

func (e *Engine) PlayerStanding(ctx context.Context, accountID string, scope Scope, period string) (Standing, error) {
	if scope == ScopePeriod && period == "" {
		period = e.CurrentPeriod().Key
	}
	return e.repo.Standing(ctx, accountID, scope, period)
}

func (e *Engine) RecentMatches(ctx context.Context, accountID string, limit int) ([]MatchRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return e.repo.RecentMatches(ctx, accountID, limit)
}

// Prune drops period aggregates older than the retention window.
func (e *Engine) Prune(ctx context.Context) (int64, error) {
	cutoff := RetentionCutoff(e.now(), e.cfg.Period, e.cfg.RetentionPeriods)
	n, err := e.repo.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		prunedRowsTotal.Add(n)
		if e.cache != nil {
			if err := e.cache.Invalidate(ctx); err != nil {
				log.Warn().Err(err).Msg("leaderboard_cache_invalidate_failed")
			}
		}
		log.Info().Int64("rows", n).Time("cutoff", cutoff).Msg("rating_periods_pruned")
	}
	return n, nil
}

func (e *Engine) StartRetention(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := e.Prune(ctx); err != nil {
					log.Error().Err(err).Msg("rating_prune_failed")
				}
			}
		}
	}()
}

func cacheKey(q LeaderboardQuery) string {
	return string(q.Scope) + ":" + q.Period + ":" + strconv.Itoa(q.Limit) + ":" + strconv.Itoa(q.Offset)
}
