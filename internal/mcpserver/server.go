package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apppublic "matchhub/internal/app/public"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const sessionURIPrefix = "matchhub://sessions/"

// Server exposes read-only lobby, session and rating views as MCP tools.
type Server struct {
	publicSvc *apppublic.Service

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(publicSvc *apppublic.Service) *Server {
	mcpSrv := server.NewMCPServer(
		"matchhub",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		publicSvc:  publicSvc,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerLobbyTools()
	s.registerRatingTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			sessionURIPrefix+"{session_id}",
			"session_state",
			mcp.WithTemplateDescription("Live session score, turn and board by session id"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, sessionURIPrefix) {
				return nil, nil
			}
			sessionID := strings.TrimPrefix(raw, sessionURIPrefix)
			if sessionID == "" {
				return nil, nil
			}
			state, err := s.publicSvc.SessionState(sessionID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(state)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}
