package spectatorgateway

import "expvar"

var (
	streamsActive  = expvar.NewInt("spectator_streams_active")
	eventsStreamed = expvar.NewInt("spectator_events_streamed_total")
)
