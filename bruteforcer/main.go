// Command bruteforcer plays a puzzle session end to end through the REST API.
// It creates (or resumes) a session, starts it, plans a solution with
// weighted A* and presses the tiles one by one, re-planning whenever the
// server ignores a move. An optional name records the result on the
// leaderboard.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/controller"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

type runConfig struct {
	URL         string
	PuzzleID    string
	GridSize    int
	SessionID   string
	SessionFile string
	Name        string
	Weight      int
	MaxNodes    int
	MaxReplans  int
	Delay       time.Duration
	Verbose     bool
}

// runResult summarizes a finished run
type runResult struct {
	SessionID string
	Moves     int
	Replans   int
	Elapsed   string
	Rank      int
}

func run(ctx context.Context, cfg runConfig) (*runResult, error) {
	log.Printf("Connecting to puzzle server at %s", cfg.URL)
	client := NewClient(cfg.URL)

	snapshot, err := openSession(ctx, client, cfg)
	if err != nil {
		return nil, err
	}

	if snapshot.State != controller.StatePlaying {
		log.Printf("🔀 Starting game (state was %s)", snapshot.State)
		if snapshot, err = client.Start(ctx); err != nil {
			return nil, err
		}
	}

	solver, err := NewSolver(snapshot.GridSize, WithWeight(cfg.Weight), WithMaxNodes(cfg.MaxNodes))
	if err != nil {
		return nil, err
	}

	result := &runResult{SessionID: client.SessionID()}
	for snapshot.State == controller.StatePlaying {
		if result.Replans > cfg.MaxReplans {
			return result, fmt.Errorf("gave up after %d re-plans", cfg.MaxReplans)
		}

		started := time.Now()
		presses, err := solver.Solve(snapshot.Arrangement)
		if err != nil {
			return result, fmt.Errorf("plan: %w", err)
		}
		if len(presses) == 0 {
			// the shuffle landed on the solved board; any move would undo it
			result.Replans++
			log.Printf("🔀 Shuffle left the board solved, restarting")
			if snapshot, err = client.Start(ctx); err != nil {
				return result, err
			}
			continue
		}
		log.Printf("🧩 Planned %d moves in %s (%d states expanded)", len(presses), time.Since(started).Round(time.Millisecond), solver.Expanded())
		if cfg.Verbose {
			log.Printf("Board:\n%s", engine.FormatBoard(snapshot.Arrangement, engine.Grid{Size: snapshot.GridSize}))
		}

		snapshot, err = play(ctx, client, cfg, snapshot, presses, result)
		if err != nil {
			return result, err
		}
		if snapshot.State == controller.StatePlaying {
			result.Replans++
			log.Printf("⚠️  Board diverged from plan, re-planning")
		}
	}

	if snapshot.State != controller.StateWon {
		return result, fmt.Errorf("session ended in state %s", snapshot.State)
	}
	result.Elapsed = snapshot.ElapsedDisplay
	log.Printf("🎉 Solved in %d moves, %s", snapshot.MoveCount, snapshot.ElapsedDisplay)

	if cfg.Name != "" && !snapshot.ScoreRecorded {
		score, err := client.SubmitScore(ctx, cfg.Name)
		if err != nil {
			return result, err
		}
		result.Rank = score.Rank
		if score.Rank > 0 {
			log.Printf("🏆 Leaderboard rank %d for %s", score.Rank, cfg.Name)
		} else {
			log.Printf("Score recorded outside the top entries")
		}
	}
	return result, nil
}

// openSession resumes the requested or saved session, or creates a new one
func openSession(ctx context.Context, client *Client, cfg runConfig) (*controller.Snapshot, error) {
	saved := cfg.SessionID
	if saved == "" && cfg.SessionFile != "" {
		if data, err := os.ReadFile(cfg.SessionFile); err == nil {
			saved = string(bytes.TrimSpace(data))
		}
	}

	if saved != "" {
		snapshot, err := client.Resume(ctx, saved)
		if err == nil {
			log.Printf("🔄 Resumed session %s (%dx%d, %s)", saved, snapshot.GridSize, snapshot.GridSize, snapshot.State)
			return snapshot, nil
		}
		log.Printf("⚠️  Failed to resume session %s (may be expired): %v", saved, err)
	}

	snapshot, err := client.CreateSession(ctx, cfg.PuzzleID, cfg.GridSize)
	if err != nil {
		return nil, err
	}
	log.Printf("✨ Session created: %s (%s, %dx%d)", client.SessionID(), snapshot.Puzzle.Name, snapshot.GridSize, snapshot.GridSize)

	if cfg.SessionFile != "" {
		if err := os.WriteFile(cfg.SessionFile, []byte(client.SessionID()), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}
	return snapshot, nil
}

// play presses each planned tile and stops early on a win or an ignored move
func play(ctx context.Context, client *Client, cfg runConfig, snapshot *controller.Snapshot, presses []int, result *runResult) (*controller.Snapshot, error) {
	for _, position := range presses {
		moved, err := client.Move(ctx, position)
		if err != nil {
			return nil, err
		}
		snapshot = moved.Snapshot
		if !moved.Applied {
			if cfg.Verbose {
				log.Printf("Move %d ignored: %s", position, moved.Message)
			}
			return snapshot, nil
		}
		result.Moves++
		if moved.Won {
			return snapshot, nil
		}

		if cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}
	}
	return snapshot, nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "Solve a sliding puzzle session through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Puzzle server URL"},
			&cli.StringFlag{Name: "puzzle", Usage: "Puzzle id for a new session (default: server default)"},
			&cli.IntFlag{Name: "grid-size", Usage: "Grid size for a new session (default: puzzle default)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File that remembers the last session ID (empty to disable)"},
			&cli.StringFlag{Name: "name", Usage: "Submit the finished time to the leaderboard under this name"},
			&cli.IntFlag{Name: "weight", Usage: "Heuristic weight (default: 1 for 3x3, 4 for 4x4)"},
			&cli.IntFlag{Name: "max-nodes", Value: defaultMaxNodes, Usage: "Maximum states expanded per plan"},
			&cli.IntFlag{Name: "max-replans", Value: 3, Usage: "Re-plans allowed when the board diverges"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between moves (e.g. 200ms)"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			result, err := run(ctx, runConfig{
				URL:         cmd.String("url"),
				PuzzleID:    cmd.String("puzzle"),
				GridSize:    cmd.Int("grid-size"),
				SessionID:   cmd.String("continue"),
				SessionFile: cmd.String("session-file"),
				Name:        cmd.String("name"),
				Weight:      cmd.Int("weight"),
				MaxNodes:    cmd.Int("max-nodes"),
				MaxReplans:  cmd.Int("max-replans"),
				Delay:       cmd.Duration("delay"),
				Verbose:     cmd.Bool("v"),
			})
			if result != nil {
				fmt.Fprintf(cmd.Root().Writer, "Session: %s\n", result.SessionID)
			}
			if errors.Is(err, ErrSearchLimit) {
				return fmt.Errorf("%w (try a larger --weight or --max-nodes)", err)
			}
			return err
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatalf("❌ %v", err)
	}
}
