package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	apppublic "matchhub/internal/app/public"
	"matchhub/internal/coordinator"
	"matchhub/internal/rating"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServerToolsAndResources(t *testing.T) {
	ctx := context.Background()
	engine := rating.NewEngine(rating.NewMemoryRepository(), rating.DefaultConfig())
	if _, err := engine.RecordMatch(ctx, rating.MatchInput{
		SessionID: "ses_old",
		Host:      rating.Participant{AccountID: "acc-a", DisplayName: "A", Score: 3},
		Guest:     rating.Participant{AccountID: "acc-b", DisplayName: "B", Score: 1},
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	coord := coordinator.New(coordinator.Options{Recorder: engine})
	sessionID := startSession(t, coord)

	srv := New(apppublic.NewService(coord, engine))
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	assertToolNames(t, mustListTools(t, mcpClient),
		"list_lobby",
		"list_active_sessions",
		"get_session_state",
		"get_leaderboard",
		"get_player_rating",
	)

	sessions := mapFromStructured(t, mustCallTool(t, mcpClient, "list_active_sessions", nil))
	items, _ := sessions["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one live session, got %v", sessions)
	}

	state := mustCallTool(t, mcpClient, "get_session_state", map[string]any{"session_id": sessionID})
	if state.IsError {
		t.Fatalf("get_session_state error: %v", state.StructuredContent)
	}
	payload := mapFromStructured(t, state)
	score, _ := payload["score"].(map[string]any)
	if asFloat64(score["host"]) != 2 || asString(payload["turn"]) != "guest" {
		t.Fatalf("unexpected session state %v", payload)
	}

	missing := mustCallTool(t, mcpClient, "get_session_state", map[string]any{"session_id": "ses_missing"})
	assertToolErrorCode(t, missing, "session_not_found")

	board := mapFromStructured(t, mustCallTool(t, mcpClient, "get_leaderboard", map[string]any{"scope": "lifetime"}))
	rows, _ := board["items"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected two leaderboard rows, got %v", board)
	}
	top, _ := rows[0].(map[string]any)
	if asString(top["account_id"]) != "acc-a" || asFloat64(top["rating"]) != 1216 {
		t.Fatalf("unexpected top row %v", top)
	}
	assertToolErrorCode(t, mustCallTool(t, mcpClient, "get_leaderboard", map[string]any{"scope": "weekly"}), "invalid_request")

	player := mapFromStructured(t, mustCallTool(t, mcpClient, "get_player_rating", map[string]any{"account_id": "acc-b"}))
	lifetime, _ := player["lifetime"].(map[string]any)
	if asFloat64(lifetime["rating"]) != 1184 {
		t.Fatalf("unexpected player rating %v", player)
	}
	assertToolErrorCode(t, mustCallTool(t, mcpClient, "get_player_rating", map[string]any{"account_id": "nobody"}), "player_not_found")

	res, err := mcpClient.ReadResource(ctx, mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: sessionURIPrefix + sessionID}})
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("expected one resource content, got %d", len(res.Contents))
	}
	var text string
	switch c := res.Contents[0].(type) {
	case mcp.TextResourceContents:
		text = c.Text
	case *mcp.TextResourceContents:
		text = c.Text
	}
	if !strings.Contains(text, `"session_id":"`+sessionID+`"`) {
		t.Fatalf("unexpected resource text %q", text)
	}
}

func startSession(t *testing.T, c *coordinator.Coordinator) string {
	t.Helper()
	for _, p := range []struct{ conn, id string }{{"conn-h", "host"}, {"conn-g", "guest"}} {
		if _, err := c.Register(p.conn, coordinator.RegisterRequest{PlayerID: p.id}, coordinator.Identity{}); err != nil {
			t.Fatalf("register: %v", err)
		}
		if err := c.EnterLobby(p.conn, ""); err != nil {
			t.Fatalf("enter lobby: %v", err)
		}
	}
	ch, err := c.IssueChallenge("conn-h", "guest", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	res, err := c.AcceptChallenge("conn-g", ch.ChallengeID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := c.RelayEvent(context.Background(), "conn-h", json.RawMessage(`{"type":"goal","score":{"host":2,"guest":0},"turn":"guest"}`)); err != nil {
		t.Fatalf("relay: %v", err)
	}
	return res.SessionID
}

func newMCPClient(t *testing.T, endpoint string) (*client.Client, func()) {
	t.Helper()
	ctx := context.Background()
	trans, err := transport.NewStreamableHTTP(endpoint)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if err := trans.Start(ctx); err != nil {
		t.Fatalf("transport start: %v", err)
	}
	c := client.NewClient(trans)
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c, func() { _ = trans.Close() }
}

func mustListTools(t *testing.T, c *client.Client) []mcp.Tool {
	t.Helper()
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	return res.Tools
}

func assertToolNames(t *testing.T, tools []mcp.Tool, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(tools))
	for _, tool := range tools {
		got = append(got, tool.Name)
	}
	sort.Strings(got)
	sort.Strings(expected)
	if len(got) != len(expected) {
		t.Fatalf("tool count mismatch got=%v expected=%v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("tool list mismatch got=%v expected=%v", got, expected)
		}
	}
}

func mustCallTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func assertToolErrorCode(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected tool error %q, got success: %v", want, res.StructuredContent)
	}
	payload := mapFromStructured(t, res)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("error payload missing 'error': %v", payload)
	}
	if got := asString(errObj["code"]); got != want {
		t.Fatalf("error code=%q want=%q payload=%v", got, want, payload)
	}
}

func mapFromStructured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat64(v any) float64 {
	f, _ := v.(float64)
	return f
}
