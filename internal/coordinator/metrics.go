package coordinator

import "expvar"

var (
	playersOnline    = expvar.NewInt("coordinator_players_online")
	sessionsActive   = expvar.NewInt("coordinator_sessions_active")
	challengesIssued = expvar.NewInt("coordinator_challenges_issued_total")
	challengesAccept = expvar.NewInt("coordinator_challenges_accepted_total")
	challengesClosed = expvar.NewInt("coordinator_challenges_closed_total")
	sessionsCreated  = expvar.NewInt("coordinator_sessions_created_total")
	sessionsClosed   = expvar.NewInt("coordinator_sessions_closed_total")
	eventsRelayed    = expvar.NewInt("coordinator_events_relayed_total")
	resumesTotal     = expvar.NewInt("coordinator_resumes_total")
	graceStarted     = expvar.NewInt("coordinator_grace_started_total")
	graceExpired     = expvar.NewInt("coordinator_grace_expired_total")
	idleClosedTotal  = expvar.NewInt("coordinator_idle_closed_total")
	ratingFailures   = expvar.NewInt("coordinator_rating_failures_total")
)

func (c *Coordinator) refreshGaugesLocked() {
	playersOnline.Set(int64(len(c.players)))
	sessionsActive.Set(int64(len(c.sessions)))
}
