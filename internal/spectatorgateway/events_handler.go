package spectatorgateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"matchhub/internal/coordinator"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

const (
	EventState         = "state"
	EventGame          = "game_event"
	EventSessionClosed = "session_closed"
	EventPing          = "ping"
)

// SessionSource is the slice of the coordinator a read-only observer needs.
type SessionSource interface {
	SubscribeSession(sessionID string) (coordinator.SessionState, <-chan coordinator.LoggedEvent, func(), error)
}

// EventsSSEHandler streams one session to an HTTP observer: the current
// state first, then every relayed event in log order. The stream ends with
// session_closed when the session does.
func EventsSSEHandler(src SessionSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		if sessionID == "" {
			writeErr(w, http.StatusBadRequest, "session_not_found")
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeErr(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}
		state, events, cancel, err := src.SubscribeSession(sessionID)
		if err != nil {
			if errors.Is(err, coordinator.ErrGameNotFound) {
				writeErr(w, http.StatusNotFound, "session_not_found")
				return
			}
			writeErr(w, http.StatusInternalServerError, "internal_error")
			return
		}
		defer cancel()
		streamsActive.Add(1)
		defer streamsActive.Add(-1)

		SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		if err := WriteSSE(w, StreamEvent{
			EventID:   strconv.FormatInt(state.LastEventID, 10),
			Event:     EventState,
			SessionID: sessionID,
			ServerTS:  time.Now().UnixMilli(),
			Data:      state,
		}); err != nil {
			return
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-events:
				if !ok {
					_ = WriteSSE(w, StreamEvent{
						Event:     EventSessionClosed,
						SessionID: sessionID,
						ServerTS:  time.Now().UnixMilli(),
						Data:      map[string]any{"session_id": sessionID},
					})
					flusher.Flush()
					return
				}
				if err := WriteSSE(w, StreamEvent{
					EventID:   strconv.FormatInt(ev.EventID, 10),
					Event:     EventGame,
					SessionID: sessionID,
					ServerTS:  ev.ServerTS,
					Data:      ev,
				}); err != nil {
					log.Debug().Err(err).Str("session_id", sessionID).Msg("sse_write_failed")
					return
				}
				eventsStreamed.Add(1)
				flusher.Flush()
			case <-ticker.C:
				ping := StreamEvent{
					Event:     EventPing,
					SessionID: sessionID,
					ServerTS:  time.Now().UnixMilli(),
					Data:      map[string]any{"ts": time.Now().UnixMilli()},
				}
				if err := WriteSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeErr(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
