package ws

import "expvar"

var (
	connectionsActive = expvar.NewInt("ws_connections_active")
	connectionsTotal  = expvar.NewInt("ws_connections_total")
	authRejected      = expvar.NewInt("ws_auth_rejected_total")
	messagesIn        = expvar.NewInt("ws_messages_in_total")
	requestsFailed    = expvar.NewInt("ws_requests_failed_total")
	droppedClients    = expvar.NewInt("ws_dropped_clients_total")
)
