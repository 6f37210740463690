package coordinator

import (
	"encoding/json"
	"sync"
	"time"
)

// LoggedEvent is one accepted relay event.
type LoggedEvent struct {
	EventID   int64           `json:"event_id"`
	SessionID string          `json:"session_id"`
	From      Role            `json:"from"`
	Kind      EventKind       `json:"kind"`
	ServerTS  int64           `json:"server_ts"`
	Payload   json.RawMessage `json:"payload"`
}

// EventLog is a bounded, ordered log of a session's relay events with
// best-effort watchers for read-only observers.
type EventLog struct {
	mu        sync.Mutex
	sessionID string
	nextID    int64
	max       int
	events    []LoggedEvent
	watchers  map[chan LoggedEvent]struct{}
	closed    bool
}

func NewEventLog(sessionID string, max int) *EventLog {
	if max <= 0 {
		max = 500
	}
	return &EventLog{
		sessionID: sessionID,
		max:       max,
		watchers:  map[chan LoggedEvent]struct{}{},
	}
}

func (l *EventLog) Append(from Role, kind EventKind, payload json.RawMessage) LoggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return LoggedEvent{}
	}
	l.nextID++
	ev := LoggedEvent{
		EventID:   l.nextID,
		SessionID: l.sessionID,
		From:      from,
		Kind:      kind,
		ServerTS:  time.Now().UnixMilli(),
		Payload:   payload,
	}
	l.events = append(l.events, ev)
	if len(l.events) > l.max {
		l.events = l.events[len(l.events)-l.max:]
	}
	for ch := range l.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

func (l *EventLog) LastID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextID
}

// After returns retained events with an id greater than last.
func (l *EventLog) After(last int64) []LoggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LoggedEvent, 0, len(l.events))
	for _, ev := range l.events {
		if ev.EventID > last {
			out = append(out, ev)
		}
	}
	return out
}

func (l *EventLog) Subscribe() chan LoggedEvent {
	ch := make(chan LoggedEvent, 64)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		close(ch)
		return ch
	}
	l.watchers[ch] = struct{}{}
	return ch
}

func (l *EventLog) Unsubscribe(ch chan LoggedEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.watchers[ch]; ok {
		delete(l.watchers, ch)
		close(ch)
	}
}

func (l *EventLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for ch := range l.watchers {
		close(ch)
		delete(l.watchers, ch)
	}
}
