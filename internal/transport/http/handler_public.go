package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	apppublic "matchhub/internal/app/public"

	"github.com/go-chi/chi/v5"
)

type PublicHandlers struct {
	publicSvc *apppublic.Service
}

func NewPublicHandlers(publicSvc *apppublic.Service) *PublicHandlers {
	return &PublicHandlers{publicSvc: publicSvc}
}

func (h *PublicHandlers) Lobby() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, h.publicSvc.Lobby())
	}
}

func (h *PublicHandlers) Sessions() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, h.publicSvc.Sessions())
	}
}

func (h *PublicHandlers) Leaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			metricLeaderboardQueryMS.Set(time.Since(start).Milliseconds())
		}()
		metricLeaderboardQueryTotal.Add(1)

		limit, offset := ParsePagination(r)
		resp, err := h.publicSvc.Leaderboard(r.Context(), apppublic.LeaderboardQuery{
			Scope:  r.URL.Query().Get("scope"),
			Period: r.URL.Query().Get("period"),
		}, limit, offset)
		if err != nil {
			metricLeaderboardQueryErrors.Add(1)
			writePublicError(w, err)
			return
		}
		writeJSON(w, resp)
	}
}

func (h *PublicHandlers) PlayerRating() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "account_id")
		resp, err := h.publicSvc.PlayerRating(r.Context(), accountID, r.URL.Query().Get("period"))
		if err != nil {
			writePublicError(w, err)
			return
		}
		writeJSON(w, resp)
	}
}

func (h *PublicHandlers) PlayerMatches() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "account_id")
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			limit = n
		}
		resp, err := h.publicSvc.PlayerMatches(r.Context(), accountID, limit)
		if err != nil {
			writePublicError(w, err)
			return
		}
		writeJSON(w, resp)
	}
}

func writePublicError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apppublic.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, apppublic.ErrSessionNotFound):
		WriteHTTPError(w, http.StatusNotFound, "session_not_found")
	case errors.Is(err, apppublic.ErrPlayerNotFound):
		WriteHTTPError(w, http.StatusNotFound, "player_not_found")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
