// Package config provides the puzzle catalogue.
//
// A catalogue is a directory holding:
//   - one JSON file per puzzle, named after its ID
//   - an optional images/ subdirectory whose pictures become puzzles
//     automatically, titled from the file name ("mountain_lake.jpg" becomes
//     "Mountain Lake")
//
// Six generated puzzles are always available even when the directory is
// empty: Blue Marble Earth, Cherry Blossoms, Ocean Waves, Mountain Sunset,
// City Lights and Forest Path. A JSON file with the same ID replaces the
// built-in entry.
//
// Puzzle Format:
//
//	{
//	  "id": "mountain-lake",
//	  "name": "Mountain Lake",
//	  "image": "images/mountain_lake.jpg",
//	  "grid_size": 3,
//	  "show_numbers": true
//	}
//
// Generated puzzles set "generated": true and a "pattern" instead of "image".
//
// Usage:
//
//	manager, err := config.NewManager("puzzles")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := manager.LoadPuzzle("cherry-blossoms")
//	puzzles, err := manager.ListPuzzles()
//
// Loaded puzzles are cached; RefreshCache drops the cache after edits on disk.
package config
