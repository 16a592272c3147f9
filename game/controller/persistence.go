package controller

import (
	"fmt"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

// Export returns the serialisable state of the controller
func (c *Controller) Export() PersistedState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return PersistedState{
		Puzzle:         c.puzzle,
		Settings:       c.settings,
		State:          c.state,
		Arrangement:    c.engine.Arrangement(),
		ElapsedSeconds: c.elapsed,
		MoveCount:      c.moves,
		Started:        c.started,
		Finished:       c.finished,
		ScoreRecorded:  c.scoreRecorded,
		FinishedAt:     c.finishedAt,
	}
}

// Restore rebuilds a controller from persisted state. A Playing session
// resumes its timer; a Shuffling session comes back as Idle.
func Restore(p PersistedState, opts ...Option) (*Controller, error) {
	c, err := NewController(p.Puzzle, p.Settings, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.engine.Restore(p.Arrangement); err != nil {
		return nil, err
	}

	state := p.State
	switch state {
	case StateIdle, StatePlaying:
	case StateShuffling, "":
		state = StateIdle
	case StateWon:
		if !c.engine.CheckWin() {
			return nil, fmt.Errorf("%w: won session with unsolved arrangement", engine.ErrInvalidConfiguration)
		}
	default:
		return nil, fmt.Errorf("%w: unknown state %q", engine.ErrInvalidConfiguration, p.State)
	}
	if p.ElapsedSeconds < 0 || p.MoveCount < 0 {
		return nil, fmt.Errorf("%w: negative counters", engine.ErrInvalidConfiguration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.elapsed = p.ElapsedSeconds
	c.moves = p.MoveCount
	c.started = p.Started
	c.finished = state == StateWon
	c.scoreRecorded = p.ScoreRecorded && state == StateWon
	c.finishedAt = p.FinishedAt
	c.transition(state)

	return c, nil
}
