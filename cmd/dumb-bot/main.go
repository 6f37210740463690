package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"matchhub/internal/config"
	"matchhub/internal/coordinator"
	"matchhub/internal/ws"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type bot struct {
	cfg  config.BotConfig
	conn *websocket.Conn
	rnd  *rand.Rand

	seq     int
	pending map[string]string

	playerID    string
	challenging bool
	sessionID   string
	role        coordinator.Role
	score       coordinator.Score
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}
	if cfg.PlayerID == "" {
		cfg.PlayerID = "bot-" + uuid.NewString()[:8]
	}
	if cfg.GoalsToWin <= 0 {
		cfg.GoalsToWin = 3
	}

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(cfg.WSURL, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		log.Fatal().Err(err).Int("status", status).Str("url", cfg.WSURL).Msg("dial failed")
	}
	defer conn.Close()

	b := &bot{
		cfg:      cfg,
		conn:     conn,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		pending:  map[string]string{},
		playerID: cfg.PlayerID,
	}
	b.run()
}

func (b *bot) run() {
	inbound := make(chan []byte, 64)
	go func() {
		defer close(inbound)
		for {
			_, data, err := b.conn.ReadMessage()
			if err != nil {
				log.Warn().Err(err).Msg("read_closed")
				return
			}
			inbound <- data
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	move := time.NewTicker(time.Duration(max(b.cfg.MoveDelay, 50)) * time.Millisecond)
	defer move.Stop()
	heartbeat := time.NewTicker(20 * time.Second)
	defer heartbeat.Stop()

	b.send(ws.MsgInit, ws.InitData{PlayerID: b.playerID, DisplayName: b.cfg.Name})

	for {
		select {
		case <-interrupt:
			if b.sessionID != "" {
				b.send(ws.MsgLeaveGame, nil)
			}
			_ = b.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
			return
		case data, ok := <-inbound:
			if !ok {
				return
			}
			b.handle(data)
		case <-move.C:
			b.playTurn()
		case <-heartbeat.C:
			b.send(ws.MsgHeartbeat, nil)
		}
	}
}

func (b *bot) send(kind string, data any) {
	b.seq++
	id := strconv.Itoa(b.seq)
	req := map[string]any{"type": kind, "id": id}
	if data != nil {
		req["data"] = data
	}
	raw, err := json.Marshal(req)
	if err != nil {
		log.Error().Err(err).Str("type", kind).Msg("encode_failed")
		return
	}
	b.pending[id] = kind
	if err := b.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		log.Error().Err(err).Str("type", kind).Msg("write_failed")
	}
}

type envelope struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func (b *bot) handle(raw []byte) {
	var msg envelope
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if msg.Type == ws.TypeAck {
		kind := b.pending[msg.ID]
		delete(b.pending, msg.ID)
		b.onAck(kind, msg)
		return
	}
	b.onPush(msg)
}

func (b *bot) onAck(kind string, msg envelope) {
	if !msg.OK {
		log.Warn().Str("request", kind).Str("error", msg.Error).Msg("request_failed")
		if kind == ws.MsgSendChallenge {
			b.challenging = false
		}
		return
	}
	switch kind {
	case ws.MsgInit:
		log.Info().Str("player_id", b.playerID).Msg("registered")
		b.send(ws.MsgEnterLobby, ws.NameData{DisplayName: b.cfg.Name})
	case ws.MsgEnterLobby:
		b.send(ws.MsgGetLobbyPlayers, nil)
	case ws.MsgGetLobbyPlayers:
		var snap coordinator.LobbySnapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			return
		}
		b.maybeChallenge(snap)
	case ws.MsgSendChallenge:
		var info coordinator.ChallengeInfo
		_ = json.Unmarshal(msg.Data, &info)
		log.Info().Str("challenge_id", info.ChallengeID).Str("target_id", info.TargetID).Msg("challenge_sent")
	case ws.MsgAcceptChallenge:
		var res coordinator.AcceptResult
		if err := json.Unmarshal(msg.Data, &res); err == nil {
			b.startGame(res)
		}
	}
}

func (b *bot) onPush(msg envelope) {
	switch msg.Type {
	case coordinator.PushLobbyChanged:
		if b.sessionID == "" && b.cfg.Challenge && !b.challenging {
			b.send(ws.MsgGetLobbyPlayers, nil)
		}
	case coordinator.PushChallenge:
		var info coordinator.ChallengeInfo
		if err := json.Unmarshal(msg.Data, &info); err != nil {
			return
		}
		if b.sessionID != "" {
			b.send(ws.MsgDeclineChallenge, ws.ChallengeRef{ChallengeID: info.ChallengeID})
			return
		}
		b.send(ws.MsgAcceptChallenge, ws.ChallengeRef{ChallengeID: info.ChallengeID})
	case coordinator.PushChallengeAccepted:
		var res coordinator.AcceptResult
		if err := json.Unmarshal(msg.Data, &res); err == nil {
			b.startGame(res)
		}
	case coordinator.PushChallengeDeclined, coordinator.PushChallengeCancelled:
		b.challenging = false
	case coordinator.PushGameEvent:
		var ev struct {
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		var body struct {
			Type  string             `json:"type"`
			Score *coordinator.Score `json:"score"`
		}
		if json.Unmarshal(ev.Payload, &body) == nil && body.Score != nil {
			b.score = *body.Score
		}
	case coordinator.PushGameEnded, coordinator.PushMatchResult:
		log.Info().Str("type", msg.Type).RawJSON("data", msg.Data).Msg("game_finished")
		b.endGame()
	case coordinator.PushPlayerDisconnected, coordinator.PushPlayerReconnected:
		log.Info().Str("type", msg.Type).RawJSON("data", msg.Data).Msg("opponent_presence")
	}
}

func (b *bot) maybeChallenge(snap coordinator.LobbySnapshot) {
	if !b.cfg.Challenge || b.challenging || b.sessionID != "" || snap.IncomingChallenge != nil {
		return
	}
	for _, p := range snap.Available {
		if p.PlayerID == b.playerID {
			continue
		}
		b.challenging = true
		b.send(ws.MsgSendChallenge, ws.ChallengeData{TargetID: p.PlayerID})
		return
	}
}

func (b *bot) startGame(res coordinator.AcceptResult) {
	if b.sessionID == res.SessionID {
		return
	}
	b.sessionID = res.SessionID
	b.role = res.Role
	b.score = coordinator.Score{}
	b.challenging = false
	log.Info().Str("session_id", res.SessionID).Str("role", string(res.Role)).Str("opponent", res.Opponent.PlayerID).Msg("game_started")
	if b.role == coordinator.RoleHost {
		b.sendEvent(map[string]any{"type": "board_init", "board": map[string]any{"ball": []int{0, 0}}, "turn": "host"})
	}
}

func (b *bot) endGame() {
	if b.sessionID == "" {
		return
	}
	b.sessionID = ""
	b.role = ""
	b.send(ws.MsgEnterLobby, ws.NameData{DisplayName: b.cfg.Name})
}

// playTurn moves the ball; only the host keeps score so the pair never
// disagrees about it.
func (b *bot) playTurn() {
	if b.sessionID == "" {
		return
	}
	if b.role != coordinator.RoleHost {
		b.sendEvent(map[string]any{"type": "piece_moved", "board": map[string]any{"ball": []int{b.rnd.Intn(9), b.rnd.Intn(5)}}})
		return
	}
	if b.rnd.Intn(3) != 0 {
		b.sendEvent(map[string]any{"type": "piece_moved", "board": map[string]any{"ball": []int{b.rnd.Intn(9), b.rnd.Intn(5)}}, "turn": "guest"})
		return
	}
	if b.rnd.Intn(2) == 0 {
		b.score.Host++
	} else {
		b.score.Guest++
	}
	if b.score.Host >= b.cfg.GoalsToWin || b.score.Guest >= b.cfg.GoalsToWin {
		b.sendEvent(map[string]any{"type": "game_over", "score": b.score})
		return
	}
	b.sendEvent(map[string]any{"type": "goal", "score": b.score, "turn": "host"})
}

func (b *bot) sendEvent(payload map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("encode_event_failed")
		return
	}
	b.send(ws.MsgGameEvent, ws.GameEventData{Payload: raw})
	log.Debug().Str("session_id", b.sessionID).Str("event", fmt.Sprint(payload["type"])).Msg("event_sent")
}
