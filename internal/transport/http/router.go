package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apppublic "matchhub/internal/app/public"
	"matchhub/internal/config"
	"matchhub/internal/coordinator"
	"matchhub/internal/mcpserver"
	"matchhub/internal/spectatorgateway"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the router mounts. DB may be nil when ratings
// are kept in memory.
type Deps struct {
	Config      config.ServerConfig
	Coordinator *coordinator.Coordinator
	Ratings     Pruner
	Public      *apppublic.Service
	MCP         *mcpserver.Server
	WS          http.HandlerFunc
	DB          Pinger
	Connections func() int
}

func NewRouter(d Deps) *chi.Mux {
	publicHandlers := NewPublicHandlers(d.Public)
	adminHandlers := NewAdminHandlers(d.DB, d.Coordinator, d.Ratings, d.Connections)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	if d.WS != nil {
		r.With(APILogMiddleware()).Get("/ws", d.WS)
	}
	if d.MCP != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", d.MCP.Handler())
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", d.MCP.Handler())
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", d.MCP.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/public/lobby", publicHandlers.Lobby())
		r.Get("/public/sessions", publicHandlers.Sessions())
		r.Get("/public/sessions/{session_id}/state", spectatorgateway.StateHandler(d.Coordinator))
		r.Get("/public/sessions/{session_id}/events", spectatorgateway.EventsSSEHandler(d.Coordinator))
		r.Get("/public/leaderboard", publicHandlers.Leaderboard())
		r.Get("/public/players/{account_id}/rating", publicHandlers.PlayerRating())
		r.Get("/public/players/{account_id}/matches", publicHandlers.PlayerMatches())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.Config.AdminAPIKey))
			r.Use(BodyCaptureMiddleware(4096))
			r.Get("/admin/stats", adminHandlers.Stats())
			r.Post("/admin/sweep", adminHandlers.Sweep())
			r.Post("/admin/ratings/prune", adminHandlers.PruneRatings())
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
