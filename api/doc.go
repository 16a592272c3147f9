// Package api provides the HTTP REST API for the sliding puzzle server.
//
// The api package implements:
//   - Session endpoints (create, list, inspect, delete)
//   - Game endpoints that drive a session controller
//   - Leaderboard and puzzle catalogue endpoints
//   - WebSocket upgrade handling for live snapshots
//   - Static file serving for the browser client and puzzle images
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 {puzzle_id?, grid_size?, show_numbers?}
//   - GET    /api/sessions?sort=&order=&limit=
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Game:
//   - GET  /api/sessions/{id}/state        current Snapshot
//   - GET  /api/sessions/{id}/tiles?canvas= source regions per slot
//   - POST /api/sessions/{id}/start        shuffle and start the timer
//   - POST /api/sessions/{id}/move         {position} or {direction}
//   - PUT  /api/sessions/{id}/grid-size    {size}
//   - PUT  /api/sessions/{id}/puzzle       {puzzle_id}
//   - PUT  /api/sessions/{id}/settings     {show_numbers}
//   - POST /api/sessions/{id}/score        {name}
//
// Leaderboard and catalogue:
//   - GET    /api/leaderboard[?format=text]
//   - DELETE /api/leaderboard
//   - GET    /api/puzzles
//   - POST   /api/puzzles
//   - GET    /api/puzzles/{id}
//
// Illegal moves are not errors: the response carries applied=false and the
// unchanged snapshot.
//
// Errors are returned as JSON with a status derived from the domain error:
//
//	{"error": "session not found: ab12"}
//
// 404 for unknown sessions and puzzles, 400 for invalid input, 409 when a
// score is submitted outside the Won state, 503 when no leaderboard is
// configured.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	server := api.NewServer(gameService, hub, api.WithStaticDir("static"))
//	http.ListenAndServe(":8080", server)
package api
