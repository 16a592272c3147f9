package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sliding Puzzle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sliding Puzzle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Restore the picture. Tiles are numbered 1..N in solved order, the empty slot is shown as '.'
and belongs in the bottom-right corner. Slide tiles into the empty slot until the board is solved.

AVAILABLE TOOLS:
- create_session: Create a new puzzle session
- list_sessions: List all active sessions
- game_state: Show the board, timer and legal moves
- start_game: Shuffle the board and start the timer
- move: Slide a tile by board position or by arrow direction
- change_grid_size: Switch between 3x3 and 4x4
- select_puzzle: Pick another picture
- submit_score: Record your name on the leaderboard after winning
- leaderboard: Show the fastest times
- list_puzzles: List available pictures
- game_instructions: Full rules and strategy tips`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new puzzle session. Starts Idle with a solved board.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"puzzle_id": map[string]interface{}{
					"type":        "string",
					"description": "Puzzle to play (optional, see list_puzzles)",
				},
				"grid_size": map[string]interface{}{
					"type":        "integer",
					"enum":        []int{3, 4},
					"description": "Board size (optional)",
				},
				"show_numbers": map[string]interface{}{
					"type":        "boolean",
					"description": "Show tile numbers (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active puzzle sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the board, elapsed time, move count and legal moves",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Shuffle the board and start the timer. Restarting resets time and moves.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide a tile into the empty slot. Give either position (0-based board index) or direction. Illegal moves are ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"position": map[string]interface{}{
					"type":        "integer",
					"description": "Board index of the tile to slide (row*size+col)",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Arrow key: the tile opposite the arrow slides into the empty slot",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "change_grid_size",
		Description: "Change the board size. Resets the session to Idle.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"size": map[string]interface{}{
					"type":        "integer",
					"enum":        []int{3, 4},
					"description": "New board size",
				},
			},
			Required: []string{"session_id", "size"},
		},
	}, c.handleChangeGridSize)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_puzzle",
		Description: "Switch to another picture. Resets the session to Idle.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"puzzle_id": map[string]interface{}{
					"type":        "string",
					"description": "Puzzle ID from list_puzzles",
				},
			},
			Required: []string{"session_id", "puzzle_id"},
		},
	}, c.handleSelectPuzzle)

	// Scores
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_score",
		Description: "Record a won game on the leaderboard",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Player name",
				},
			},
			Required: []string{"session_id", "name"},
		},
	}, c.handleSubmitScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Show the top 10 fastest games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleLeaderboard)

	// Catalogue
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_puzzles",
		Description: "List available puzzle pictures",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPuzzles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules and solving tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if puzzleID, _ := args["puzzle_id"].(string); puzzleID != "" {
		body["puzzle_id"] = puzzleID
	}
	if size, ok := intArg(args, "grid_size"); ok {
		body["grid_size"] = size
	}
	if show, ok := args["show_numbers"].(bool); ok {
		body["show_numbers"] = show
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nPuzzle: %s\n\n%s", session.ID, session.PuzzleID, formatSnapshot(session.Snapshot))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		state := "unknown"
		if s.Snapshot != nil {
			state = string(s.Snapshot.State)
		}
		result += fmt.Sprintf("- %s (Puzzle: %s, State: %s, Created: %s)\n",
			s.ID, s.PuzzleID, state, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var snapshot controller.Snapshot
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &snapshot); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snapshot)), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var snapshot controller.Snapshot
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/start", sessionID), nil, &snapshot); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Board shuffled, timer started.\n\n" + formatSnapshot(&snapshot)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	position, hasPosition := intArg(args, "position")

	body := map[string]interface{}{}
	switch {
	case hasPosition && direction != "":
		return mcp.NewToolResultError("give either position or direction, not both"), nil
	case hasPosition:
		body["position"] = position
	case direction != "":
		body["direction"] = direction
	default:
		return mcp.NewToolResultError("position or direction is required"), nil
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/move", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleChangeGridSize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	size, ok := intArg(args, "size")
	if !ok {
		return mcp.NewToolResultError("size is required"), nil
	}

	var snapshot controller.Snapshot
	err := c.apiCall(ctx, "PUT", fmt.Sprintf("/api/sessions/%s/grid-size", sessionID), map[string]int{"size": size}, &snapshot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snapshot)), nil
}

func (c *Client) handleSelectPuzzle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	puzzleID, _ := args["puzzle_id"].(string)

	var snapshot controller.Snapshot
	err := c.apiCall(ctx, "PUT", fmt.Sprintf("/api/sessions/%s/puzzle", sessionID), map[string]string{"puzzle_id": puzzleID}, &snapshot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snapshot)), nil
}

func (c *Client) handleSubmitScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	name, _ := args["name"].(string)

	var result service.ScoreResult
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/score", sessionID), map[string]string{"name": name}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	if result.Rank > 0 {
		fmt.Fprintf(&b, "Score recorded: %s finished in %s with %d moves (rank #%d)\n\n",
			result.Entry.Name, engine.FormatElapsed(result.Entry.ElapsedSeconds), result.Entry.MoveCount, result.Rank)
	} else {
		fmt.Fprintf(&b, "Score recorded for %s but it did not reach the top %d\n\n", result.Entry.Name, leaderboard.MaxEntries)
	}
	b.WriteString(leaderboard.FormatEntries(result.Leaderboard, time.Now()))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                 `json:"count"`
		Entries []leaderboard.Entry `json:"entries"`
	}

	if err := c.apiCall(ctx, "GET", "/api/leaderboard", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(leaderboard.FormatEntries(response.Entries, time.Now())), nil
}

func (c *Client) handleListPuzzles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var puzzles []service.PuzzleInfo

	if err := c.apiCall(ctx, "GET", "/api/puzzles", nil, &puzzles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Available Puzzles (%d):\n\n", len(puzzles))
	for _, p := range puzzles {
		kind := "image"
		if p.Generated {
			kind = "generated"
		}
		result += fmt.Sprintf("- %s: %s (%s, %dx%d)", p.PuzzleID, p.Name, kind, p.GridSize, p.GridSize)
		if p.Description != "" {
			result += " - " + p.Description
		}
		result += "\n"
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Sliding Puzzle - Complete Instructions

GAME OBJECTIVE:
A picture is cut into a 3x3 or 4x4 grid with the bottom-right piece removed. Slide the
remaining tiles into the empty slot until every tile is back in its home position.

BOARD LEGEND:
- Numbers are tile labels 1..N in solved reading order
- '.' is the empty slot
- Positions are 0-based indexes in reading order: index = row*size + col

SOLVED 3x3 BOARD:
1 2 3
4 5 6
7 8 .

GAME FLOW:
1. create_session creates an Idle session with a solved board
2. start_game shuffles the board and starts the timer
3. move slides tiles; illegal moves are ignored and never counted
4. When the board is solved the timer stops and the game is won
5. submit_score records your name, time and move count on the leaderboard

MOVEMENT COMMANDS:
- move with position: slides the tile at that index; it must be next to the empty slot
- move with direction: the tile on the opposite side of the arrow slides into the empty slot
  ("up" moves the tile below the empty slot up)
- game_state lists the legal positions for the next move

SOLVING TIPS:
- Solve the top row first, then the left column, then the remaining smaller puzzle
- Place the last two tiles of a row together: park one, then rotate both in
- On 4x4 boards reduce to a 3x3 by finishing the first row and column
- Keep the solved part intact; route the empty slot around it

CHANGING THE GAME:
- change_grid_size and select_puzzle reset the session to Idle with a solved board
- start_game again at any time to reshuffle and restart the timer

LEADERBOARD:
- Only won games can be recorded, once per game
- The 10 fastest times are kept; ties keep the earlier score first

Good luck restoring the picture!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSnapshot(snapshot *controller.Snapshot) string {
	if snapshot == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Puzzle: %s | Grid: %dx%d | State: %s\n",
		snapshot.Puzzle.Name, snapshot.GridSize, snapshot.GridSize, snapshot.State)
	fmt.Fprintf(&result, "Time: %s | Moves: %d\n\n", snapshot.ElapsedDisplay, snapshot.MoveCount)

	if grid, err := engine.NewGrid(snapshot.GridSize); err == nil && len(snapshot.Arrangement) == grid.TotalTiles() {
		result.WriteString(engine.FormatBoard(snapshot.Arrangement, grid))
		result.WriteString("\n")
	}

	switch snapshot.State {
	case controller.StateWon:
		result.WriteString("🎉 SOLVED!")
		if !snapshot.ScoreRecorded {
			result.WriteString(" Use submit_score to record your time.")
		}
		result.WriteString("\n")
	case controller.StateIdle:
		result.WriteString("Use start_game to shuffle and start the timer.\n")
	case controller.StatePlaying:
		if len(snapshot.ValidMoves) > 0 {
			moves := make([]string, len(snapshot.ValidMoves))
			for i, m := range snapshot.ValidMoves {
				moves[i] = fmt.Sprint(m)
			}
			fmt.Fprintf(&result, "Legal positions: %s\n", strings.Join(moves, ", "))
		}
	}

	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder

	switch {
	case result.Won:
		b.WriteString("✓ Move successful - puzzle solved!\n\n")
	case result.Applied:
		fmt.Fprintf(&b, "✓ Move successful (tile at %d)\n\n", result.Index)
	default:
		b.WriteString("✗ Move ignored: tile is not next to the empty slot or the game is not running\n\n")
	}

	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}
