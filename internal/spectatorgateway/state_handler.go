package spectatorgateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"matchhub/internal/coordinator"

	"github.com/go-chi/chi/v5"
)

type StateSource interface {
	SessionState(sessionID string) (coordinator.SessionState, error)
}

// StateHandler serves the same baseline a joining spectator receives.
func StateHandler(src StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		if sessionID == "" {
			writeErr(w, http.StatusBadRequest, "session_id_required")
			return
		}
		state, err := src.SessionState(sessionID)
		if err != nil {
			if errors.Is(err, coordinator.ErrGameNotFound) {
				writeErr(w, http.StatusNotFound, "session_not_found")
				return
			}
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(state)
	}
}
