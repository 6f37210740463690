package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"matchhub/internal/auth"
	"matchhub/internal/coordinator"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Options struct {
	SendBuffer   int
	PingInterval time.Duration
}

// Server terminates player WebSocket connections and is the coordinator's
// Notifier.
type Server struct {
	coord        *coordinator.Coordinator
	verifier     *auth.Verifier
	upgrader     websocket.Upgrader
	sendBuffer   int
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewServer(coord *coordinator.Coordinator, verifier *auth.Verifier, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	s := &Server{
		coord:        coord,
		verifier:     verifier,
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		sendBuffer:   opts.SendBuffer,
		pingInterval: opts.PingInterval,
		clients:      map[string]*Client{},
	}
	coord.SetNotifier(s)
	return s
}

// Push implements coordinator.Notifier.
func (s *Server) Push(connID, event string, data any) {
	s.mu.RLock()
	c := s.clients[connID]
	s.mu.RUnlock()
	if c == nil {
		return
	}
	b, err := json.Marshal(Push{Type: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws_push_marshal_failed")
		return
	}
	c.enqueue(b)
}

// Close implements coordinator.Notifier.
func (s *Server) Close(connID string) {
	s.mu.RLock()
	c := s.clients[connID]
	s.mu.RUnlock()
	if c != nil {
		c.closeSend()
	}
}

func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// CloseAll drops every connection; used on shutdown.
func (s *Server) CloseAll() {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	for _, c := range clients {
		c.closeSend()
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ident, err := s.authenticate(r)
	if err != nil {
		authRejected.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": auth.ErrInvalidToken.Error()})
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(uuid.NewString(), conn, ident, s.sendBuffer)
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	connectionsActive.Add(1)
	connectionsTotal.Add(1)
	log.Info().Str("conn_id", c.id).Str("account_id", ident.AccountID).Msg("ws_connected")

	go c.writeLoop(s.pingInterval)
	s.readLoop(c)
}

// authenticate resolves the optional bearer token. No token, or auth turned
// off, means a guest connection.
func (s *Server) authenticate(r *http.Request) (coordinator.Identity, error) {
	token := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token == "" || !s.verifier.Enabled() {
		return coordinator.Identity{}, nil
	}
	return s.verifier.Verify(token)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		connectionsActive.Add(-1)
		s.coord.Disconnect(c.id)
		c.closeSend()
		_ = c.conn.Close()
		log.Info().Str("conn_id", c.id).Msg("ws_disconnected")
	}()

	wait := 2 * s.pingInterval
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn_id", c.id).Msg("ws_read_failed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		messagesIn.Add(1)
		s.coord.Touch(c.id)

		ack := s.handle(c, msg)
		b, err := json.Marshal(ack)
		if err != nil {
			log.Error().Err(err).Str("conn_id", c.id).Msg("ws_ack_marshal_failed")
			continue
		}
		c.enqueue(b)
	}
}

func (s *Server) handle(c *Client, msg []byte) Ack {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil || req.Type == "" {
		requestsFailed.Add(1)
		return Ack{Type: TypeAck, Error: coordinator.ErrInvalidRequest.Error()}
	}
	ack := Ack{Type: TypeAck, ID: req.ID}
	if len(req.ID) > maxRequestIDLen {
		requestsFailed.Add(1)
		ack.Error = coordinator.ErrInvalidRequest.Error()
		return ack
	}

	data, err := s.dispatch(context.Background(), c, req)
	if err != nil {
		requestsFailed.Add(1)
		ack.Error = coordinator.ErrorCode(err)
		if !coordinator.IsDomainError(err) {
			log.Error().Err(err).Str("conn_id", c.id).Str("type", req.Type).Msg("ws_request_failed")
		}
		// A relayed game_over keeps its event id even when recording failed.
		if rr, ok := data.(coordinator.RelayResult); ok && rr.EventID != 0 {
			ack.Data = rr
		}
		return ack
	}
	ack.OK = true
	ack.Data = data
	return ack
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", coordinator.ErrInvalidRequest, err)
	}
	return nil
}

var errUnknownType = fmt.Errorf("%w: unknown message type", coordinator.ErrInvalidRequest)

// dispatch runs one request against the coordinator.
func (s *Server) dispatch(ctx context.Context, c *Client, req Request) (any, error) {
	switch req.Type {
	case MsgInit:
		var in InitData
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		return s.coord.Register(c.id, coordinator.RegisterRequest{
			PlayerID:    in.PlayerID,
			DisplayName: in.DisplayName,
			LastEventID: in.LastEventID,
		}, c.identity)
	case MsgUpdatePlayerName:
		var in NameData
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		return nil, s.coord.UpdatePlayerName(c.id, in.DisplayName)
	case MsgEnterLobby:
		var in NameData
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		return nil, s.coord.EnterLobby(c.id, in.DisplayName)
	case MsgLeaveLobby:
		return nil, s.coord.LeaveLobby(c.id)
	case MsgGetLobbyPlayers:
		return s.coord.ListLobby(c.id)
	case MsgSendChallenge:
		var in ChallengeData
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		return s.coord.IssueChallenge(c.id, in.TargetID, in.HintsEnabled)
	case MsgAcceptChallenge:
		var in ChallengeRef
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		return s.coord.AcceptChallenge(c.id, in.ChallengeID)
	case MsgDeclineChallenge:
		var in ChallengeRef
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		reason, err := s.coord.DeclineChallenge(c.id, in.ChallengeID)
		if err != nil {
			return nil, err
		}
		return map[string]string{"challenge_id": in.ChallengeID, "reason": reason}, nil
	case MsgCancelChallenge:
		var in ChallengeRef
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		return nil, s.coord.CancelChallenge(c.id, in.ChallengeID)
	case MsgGameEvent:
		var in GameEventData
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		res, err := s.coord.RelayEvent(ctx, c.id, in.Payload)
		if err != nil && res.EventID == 0 {
			return nil, err
		}
		return res, err
	case MsgLeaveGame:
		return nil, s.coord.LeaveGame(c.id)
	case MsgJoinSpectator:
		var in SpectateData
		if err := decode(req.Data, &in); err != nil {
			return nil, err
		}
		if in.SessionID == "" {
			return nil, fmt.Errorf("%w: session_id required", coordinator.ErrInvalidRequest)
		}
		return s.coord.JoinSpectator(c.id, in.SessionID)
	case MsgLeaveSpectator:
		return nil, s.coord.LeaveSpectator(c.id)
	case MsgHeartbeat:
		if err := s.coord.Heartbeat(c.id); err != nil {
			return nil, err
		}
		return map[string]int64{"server_ts": time.Now().UnixMilli()}, nil
	}
	return nil, errUnknownType
}

var _ coordinator.Notifier = (*Server)(nil)
