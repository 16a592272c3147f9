// Package mcp exposes the sliding puzzle to AI agents over the Model Context
// Protocol.
//
// Client is a thin proxy: every tool call becomes a request against the REST
// API, so agents and browsers share the same sessions and leaderboard.
//
// MCP Tools:
//   - create_session, list_sessions: session management
//   - game_state: text board with time, moves and legal positions
//   - start_game: shuffle and start the timer
//   - move: slide a tile by board index or arrow direction
//   - change_grid_size, select_puzzle: reset the board with new settings
//   - submit_score, leaderboard: record and show the fastest games
//   - list_puzzles: picture catalogue
//   - game_instructions: rules and solving tips
//
// API errors are returned as tool errors rather than protocol errors.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
