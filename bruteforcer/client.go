package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

// Client drives a single puzzle session over the REST API
type Client struct {
	baseURL   string
	client    *http.Client
	sessionID string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) CreateSession(ctx context.Context, puzzleID string, gridSize int) (*controller.Snapshot, error) {
	req := service.CreateSessionOptions{PuzzleID: puzzleID, GridSize: gridSize}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return session.Snapshot, nil
}

// Resume attaches to an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*controller.Snapshot, error) {
	c.sessionID = sessionID
	snapshot, err := c.GetState(ctx)
	if err != nil {
		c.sessionID = ""
		return nil, err
	}
	return snapshot, nil
}

func (c *Client) GetState(ctx context.Context) (*controller.Snapshot, error) {
	var snapshot controller.Snapshot
	if err := c.do(ctx, http.MethodGet, c.sessionPath("/state"), nil, &snapshot); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &snapshot, nil
}

func (c *Client) Start(ctx context.Context) (*controller.Snapshot, error) {
	var snapshot controller.Snapshot
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/start"), nil, &snapshot); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return &snapshot, nil
}

func (c *Client) Move(ctx context.Context, position int) (*service.MoveResult, error) {
	req := map[string]int{"position": position}

	var result service.MoveResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/move"), req, &result); err != nil {
		return nil, fmt.Errorf("move %d: %w", position, err)
	}
	return &result, nil
}

func (c *Client) SubmitScore(ctx context.Context, name string) (*service.ScoreResult, error) {
	req := map[string]string{"name": name}

	var result service.ScoreResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/score"), req, &result); err != nil {
		return nil, fmt.Errorf("submit score: %w", err)
	}
	return &result, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
