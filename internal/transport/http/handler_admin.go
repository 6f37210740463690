package httptransport

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"matchhub/internal/coordinator"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Sweeper interface {
	Sweep() coordinator.SweepReport
	Stats() coordinator.Stats
}

type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

type AdminHandlers struct {
	db      Pinger
	coord   Sweeper
	ratings Pruner
	conns   func() int
}

// NewAdminHandlers accepts a nil db when ratings live in memory.
func NewAdminHandlers(db Pinger, coord Sweeper, ratings Pruner, conns func() int) *AdminHandlers {
	if conns == nil {
		conns = func() int { return 0 }
	}
	return &AdminHandlers{db: db, coord: coord, ratings: ratings, conns: conns}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.db == nil {
			writeJSON(w, map[string]any{"ok": true, "db": "memory"})
			return
		}
		if err := h.db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"coordinator": h.coord.Stats(),
			"connections": h.conns(),
		})
	}
}

func (h *AdminHandlers) Sweep() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		metricAdminSweepTotal.Add(1)
		report := h.coord.Sweep()
		log.Info().
			Int("idle_closed", report.IdleClosed).
			Int("sessions_torn_down", report.SessionsTornDown).
			Int("players_reaped", report.PlayersReaped).
			Msg("admin_sweep")
		writeJSON(w, map[string]any{"ok": true, "report": report})
	}
}

func (h *AdminHandlers) PruneRatings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricAdminPruneTotal.Add(1)
		n, err := h.ratings.Prune(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("admin_prune_failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, map[string]any{"ok": true, "pruned": n})
	}
}
