package mcpserver

import (
	"context"

	apppublic "matchhub/internal/app/public"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerLobbyTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_lobby",
			mcp.WithDescription("List players waiting in the lobby and live sessions"),
		),
		s.handleListLobby,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_active_sessions",
			mcp.WithDescription("List live sessions with names, score and spectator count"),
		),
		s.handleListActiveSessions,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_session_state",
			mcp.WithDescription("Get the spectator baseline of one session"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		),
		s.handleGetSessionState,
	)
}

func (s *Server) registerRatingTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_leaderboard",
			mcp.WithDescription("Get the rating leaderboard"),
			mcp.WithString("scope", mcp.Description("period|lifetime")),
			mcp.WithString("period", mcp.Description("Period key such as 2026-W42; default current")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 50, max 100")),
			mcp.WithNumber("offset", mcp.Description("Page offset, default 0")),
		),
		s.handleGetLeaderboard,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_player_rating",
			mcp.WithDescription("Get lifetime and period rating of a verified account"),
			mcp.WithString("account_id", mcp.Required(), mcp.Description("Account id")),
			mcp.WithString("period", mcp.Description("Period key; default current")),
		),
		s.handleGetPlayerRating,
	)
}

func (s *Server) handleListLobby(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.publicSvc.Lobby()), nil
}

func (s *Server) handleListActiveSessions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.publicSvc.Sessions()), nil
}

func (s *Server) handleGetSessionState(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.publicSvc.SessionState(sessionID)
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope := normalizeScope(request.GetString("scope", ""))
	if !isAllowedScope(scope) {
		return toolError("invalid_request", "scope must be period|lifetime"), nil
	}
	limit := request.GetInt("limit", defaultPageLimit)
	offset := request.GetInt("offset", 0)
	limit, offset = clampPagination(limit, offset, maxLeaderboardLimit)

	resp, err := s.publicSvc.Leaderboard(ctx, apppublic.LeaderboardQuery{
		Scope:  scope,
		Period: request.GetString("period", ""),
	}, limit, offset)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleGetPlayerRating(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, svcErr := s.publicSvc.PlayerRating(ctx, accountID, request.GetString("period", ""))
	if svcErr != nil {
		return mapDomainError(svcErr), nil
	}
	return toolResult(resp), nil
}
