// Package service provides the business logic layer for the sliding puzzle server.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Puzzle catalogue lookup and saving
//   - Move processing by position or direction
//   - Renderer tile views
//   - Score submission and the leaderboard
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages the puzzle catalogue.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the per-session controllers. Each session owns a controller with its own
// engine and timer; the service adds lookup, persistence after every mutation
// and the leaderboard store.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("puzzles")
//	scores, _ := leaderboard.Open(ctx, "leaderboard.json")
//	gameService := service.NewGameService(sessionMgr, configMgr, scores)
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionOptions{PuzzleID: "ocean-waves"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	snapshot, _ := gameService.StartGame(ctx, info.ID)
//	result, err := gameService.Move(ctx, info.ID, snapshot.ValidMoves[0])
//
// Session Management:
//
// Sessions are identified by unique 4-character IDs and keep independent
// puzzle state. Sessions track creation and last access time so idle ones can
// be cleaned up.
package service
