package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/config"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/leaderboard"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/session"
	"github.com/wricardo/mcp-training/slidingpuzzle/transport/websocket"
)

func quietTicker(time.Duration) (<-chan time.Time, func()) {
	return nil, func() {}
}

// newIntegrationServer wires the real stack. One shuffle step keeps the
// board a single move from solved.
func newIntegrationServer(t *testing.T) (*httptest.Server, *session.Manager, *websocket.Hub) {
	t.Helper()

	configs, err := config.NewManager(t.TempDir())
	require.NoError(t, err)

	scores, err := leaderboard.NewFileStore(filepath.Join(t.TempDir(), "leaderboard.json"))
	require.NoError(t, err)

	sessions := session.NewManager(
		controller.WithTicker(quietTicker),
		controller.WithRand(rand.New(rand.NewSource(7))),
		controller.WithShuffleIterations(1),
	)
	t.Cleanup(sessions.Close)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(NewServer(service.NewGameService(sessions, configs, scores), hub))
	t.Cleanup(srv.Close)
	return srv, sessions, hub
}

func doJSON(t *testing.T, method, url, body string, target interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func TestIntegration_PlayToWinAndRecordScore(t *testing.T) {
	srv, _, hub := newIntegrationServer(t)

	var info service.SessionInfo
	status := doJSON(t, "POST", srv.URL+"/api/sessions", `{"puzzle_id":"ocean-waves","grid_size":3}`, &info)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, info.ID)
	assert.Equal(t, controller.StateIdle, info.Snapshot.State)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=" + info.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(info.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	base := srv.URL + "/api/sessions/" + info.ID

	// Scores are refused before the game is won
	status = doJSON(t, "POST", base+"/score", `{"name":"Ana"}`, nil)
	assert.Equal(t, http.StatusConflict, status)

	var snap controller.Snapshot
	status = doJSON(t, "POST", base+"/start", "", &snap)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, controller.StatePlaying, snap.State)
	require.NotEqual(t, 8, snap.EmptyPosition.Row*3+snap.EmptyPosition.Col, "one shuffle step must move the empty slot")

	// The first broadcast is the start snapshot
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.EventStateUpdate, msg.Event)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, controller.StatePlaying, msg.Snapshot.State)

	// An illegal move is a quiet no-op
	var result service.MoveResult
	status = doJSON(t, "POST", base+"/move", `{"position":0}`, &result)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, result.Applied)
	assert.Equal(t, 0, result.Snapshot.MoveCount)

	// Sliding the displaced tile back solves the board
	status = doJSON(t, "POST", base+"/move", `{"position":8}`, &result)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, result.Applied)
	assert.True(t, result.Won)
	assert.Equal(t, controller.StateWon, result.Snapshot.State)
	assert.Equal(t, 1, result.Snapshot.MoveCount)

	// A blank name keeps the session won
	status = doJSON(t, "POST", base+"/score", `{"name":"   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var score service.ScoreResult
	status = doJSON(t, "POST", base+"/score", `{"name":"Ana"}`, &score)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Ana", score.Entry.Name)
	assert.Equal(t, 1, score.Rank)
	assert.Equal(t, 1, score.Entry.MoveCount)

	status = doJSON(t, "POST", base+"/score", `{"name":"Ana"}`, nil)
	assert.Equal(t, http.StatusConflict, status)

	var board struct {
		Count   int                 `json:"count"`
		Entries []leaderboard.Entry `json:"entries"`
	}
	status = doJSON(t, "GET", srv.URL+"/api/leaderboard", "", &board)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, board.Count)
	assert.Equal(t, "Ana", board.Entries[0].Name)
	assert.Equal(t, "Ocean Waves", board.Entries[0].Image)
}

func TestIntegration_TilesAndCatalogue(t *testing.T) {
	srv, sessions, _ := newIntegrationServer(t)

	var info service.SessionInfo
	require.Equal(t, http.StatusCreated, doJSON(t, "POST", srv.URL+"/api/sessions", `{"grid_size":4}`, &info))
	assert.Equal(t, 1, sessions.Count())
	assert.Equal(t, config.DefaultPuzzleID, info.PuzzleID)

	var tiles service.TilesResponse
	require.Equal(t, http.StatusOK, doJSON(t, "GET", srv.URL+"/api/sessions/"+info.ID+"/tiles?canvas=400", "", &tiles))
	assert.Equal(t, 4, tiles.GridSize)
	assert.Len(t, tiles.Tiles, 16)

	var puzzles []*service.PuzzleInfo
	require.Equal(t, http.StatusOK, doJSON(t, "GET", srv.URL+"/api/puzzles", "", &puzzles))
	assert.Len(t, puzzles, len(config.BuiltinPuzzles()))

	status := doJSON(t, "PUT", srv.URL+"/api/sessions/"+info.ID+"/grid-size", `{"size":5}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, "PUT", srv.URL+"/api/sessions/"+info.ID+"/puzzle", `{"puzzle_id":"missing"}`, nil)
	assert.Equal(t, http.StatusNotFound, status)

	require.Equal(t, http.StatusOK, doJSON(t, "DELETE", srv.URL+"/api/sessions/"+info.ID, "", nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, "GET", srv.URL+"/api/sessions/"+info.ID, "", nil))
}
