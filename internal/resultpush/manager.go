package resultpush

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"matchhub/internal/coordinator"
	"matchhub/internal/resultpush/platforms"
)

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Manager fans session lifecycle changes out to webhook targets. It
// implements coordinator.SessionObserver; observer calls only enqueue.
type Manager struct {
	cfg      Config
	router   Router
	adapters map[string]platforms.Adapter
	now      func() time.Time

	dispatchCh chan pushJob
	done       chan struct{}

	mu           sync.Mutex
	started      bool
	breakerByKey map[string]breakerState
}

var _ coordinator.SessionObserver = (*Manager)(nil)

func NewManager(cfg Config) *Manager {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	adapters := map[string]platforms.Adapter{
		"discord": platforms.NewDiscordAdapter(client),
		"feishu":  platforms.NewFeishuAdapter(client),
		"webhook": platforms.NewWebhookAdapter(client),
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	return &Manager{
		cfg:          cfg,
		router:       Router{},
		adapters:     adapters,
		now:          time.Now,
		dispatchCh:   make(chan pushJob, cfg.DispatchBuffer),
		done:         make(chan struct{}),
		breakerByKey: map[string]breakerState{},
	}
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.ConfigPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go func() {
		<-ctx.Done()
		close(m.done)
	}()
	log.Info().Int("targets", len(m.currentTargets())).Int("workers", m.cfg.Workers).Msg("result_push_started")
	return nil
}

func (m *Manager) OnSessionStarted(s coordinator.SessionSummary) {
	m.publish(MatchEvent{
		EventType: EventMatchStarted,
		SessionID: s.SessionID,
		Host:      s.Host,
		Guest:     s.Guest,
		Score:     s.Score,
		At:        m.now(),
	})
}

func (m *Manager) OnSessionClosed(s coordinator.SessionSummary, closed coordinator.SessionClosed) {
	ev := MatchEvent{
		EventType: EventMatchAbandoned,
		SessionID: s.SessionID,
		Reason:    closed.Reason,
		Host:      s.Host,
		Guest:     s.Guest,
		Score:     s.Score,
		Result:    closed.Result,
		At:        m.now(),
	}
	if closed.Reason == coordinator.ReasonCompleted {
		ev.EventType = EventMatchCompleted
		ev.Reason = ""
	}
	m.publish(ev)
}

func (m *Manager) publish(ev MatchEvent) {
	if !m.cfg.Enabled || ev.SessionID == "" {
		return
	}
	targets := m.router.MatchTargets(m.currentTargets(), ev)
	if len(targets) == 0 {
		return
	}
	formatted, ok := FormatMessage(ev)
	if !ok {
		return
	}
	for _, target := range targets {
		if !m.enqueue(pushJob{Target: target, Event: ev, Formatted: formatted}) {
			metricPushDroppedTotal.Add(1)
		}
	}
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case <-m.done:
		return false
	case m.dispatchCh <- job:
		metricPushQueuedTotal.Add(1)
		metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

func (m *Manager) currentTargets() []PushTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PushTarget, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) setTargets(targets []PushTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Targets = targets
}

func (m *Manager) watchConfigLoop(ctx context.Context) {
	interval := m.cfg.ConfigReload
	if interval <= 0 {
		interval = 5 * time.Second
	}
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.ConfigPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			raw, err := os.ReadFile(m.cfg.ConfigPath)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				continue
			}
			nextRaw := strings.TrimSpace(string(raw))
			if nextRaw == lastRaw {
				continue
			}
			targets, err := parseTargets(nextRaw)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				log.Warn().Err(err).Str("path", m.cfg.ConfigPath).Msg("result_push_config_reload_failed")
				continue
			}
			m.setTargets(targets)
			lastRaw = nextRaw
			metricPushConfigReloadTotal.Add(1)
			log.Info().Int("targets", len(targets)).Msg("result_push_config_reloaded")
		}
	}
}
