package coordinator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

func (c *Coordinator) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report := c.Sweep()
				if report != (SweepReport{}) {
					log.Info().
						Int("idle_closed", report.IdleClosed).
						Int("sessions_torn_down", report.SessionsTornDown).
						Int("players_reaped", report.PlayersReaped).
						Msg("coordinator_sweep")
				}
			}
		}
	}()
}

// Sweep reclaims state leaked by clients that vanished without a clean
// close: idle connections, sessions with no reachable participant, and
// disconnected players whose grace task is gone.
func (c *Coordinator) Sweep() SweepReport {
	var report SweepReport
	now := c.now()

	c.mu.Lock()
	notifier := c.notifier
	idle := make([]string, 0)
	for _, p := range c.players {
		if p.connID != "" && now.Sub(p.lastActivity) > c.livenessTimeout {
			idle = append(idle, p.connID)
		}
	}
	c.mu.Unlock()
	for _, connID := range idle {
		notifier.Close(connID)
		c.Disconnect(connID)
	}
	report.IdleClosed = len(idle)
	idleClosedTotal.Add(int64(len(idle)))

	c.mu.Lock()
	defer c.mu.Unlock()
	dead := make([]*session, 0)
	for _, s := range c.sessions {
		s.mu.Lock()
		if !s.host.connected && !s.guest.connected {
			dead = append(dead, s)
		}
		s.mu.Unlock()
	}
	for _, s := range dead {
		if _, ok := c.sessions[s.id]; ok {
			c.teardownLocked(s)
			report.SessionsTornDown++
		}
	}

	ids := make([]string, 0, len(c.players))
	for id := range c.players {
		ids = append(ids, id)
	}
	for _, id := range ids {
		p, ok := c.players[id]
		if !ok {
			continue
		}
		switch {
		case p.status == StatusDisconnected:
			if !c.grace.has(p.id) && now.Sub(p.disconnectedAt) >= c.reconnectGrace {
				c.finalizeDisconnectedLocked(p)
				report.PlayersReaped++
			}
		case p.connID == "":
			c.removePlayerLocked(p)
			report.PlayersReaped++
		}
	}
	return report
}
