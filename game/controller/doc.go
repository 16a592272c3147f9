// Package controller implements the per-session puzzle state machine.
//
// A Controller owns one engine.PuzzleEngine plus the counters a player sees:
// elapsed seconds, move count and whether the game has started or finished.
//
// States:
//
//	Idle ──StartGame──▶ Shuffling ──▶ Playing ──winning move──▶ Won
//	  ▲                                  │                      │
//	  └──ChangeGridSize / SelectPuzzleImage────────────────────┘
//
// StartGame works from any state and always produces a fresh shuffled game.
// Moves are honoured only while Playing; everything else is silently ignored.
//
// Timer:
//
// Entering Playing acquires a cancellable one-second ticker and every exit
// from Playing releases it, all through a single transition function. Close
// releases it as well when a session is discarded. Ticks that race with a
// release are dropped.
//
// Scores:
//
// After a win, SubmitScore hands a leaderboard.Entry to the given
// ScoreRecorder. A blank name returns ErrNameRequired and the session stays Won
// so the player can try again.
package controller
