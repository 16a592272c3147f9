// Command validate checks the puzzle catalogue JSON files in a directory
// (default ../puzzles). It checks:
//   - JSON structure and required fields
//   - ID format and that the file name matches the ID
//   - Grid size and the generated/image rules
//   - That referenced image files exist next to the catalogue
//   - Duplicate IDs and overrides of built-in puzzles
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/config"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	ID     string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validatePuzzle loads and validates a single puzzle JSON file
func validatePuzzle(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var puzzle engine.PuzzleConfig
	if err := json.Unmarshal(data, &puzzle); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	result.ID = puzzle.ID

	if err := engine.ValidatePuzzleConfig(&puzzle); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	if expected := strings.TrimSuffix(result.File, ".json"); puzzle.ID != expected {
		result.fail("File name %s does not match id %q", result.File, puzzle.ID)
	}

	size := puzzle.EffectiveGridSize()
	result.info("Grid: %dx%d (%d tiles)", size, size, size*size-1)

	if puzzle.Generated {
		result.info("Generated pattern: %s", puzzle.Pattern)
	} else {
		validateImage(&result, filepath.Dir(filePath), puzzle.Image)
	}

	return result
}

// validateImage checks that a local image reference points at a file
func validateImage(result *ValidationResult, dir, image string) {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") || strings.HasPrefix(image, "data:") {
		result.info("Remote image: %s", image)
		return
	}

	path := filepath.Join(dir, filepath.FromSlash(image))
	info, err := os.Stat(path)
	switch {
	case err != nil:
		result.fail("Image %s not found", image)
	case info.IsDir():
		result.fail("Image %s is a directory", image)
	default:
		result.info("Image: %s", image)
	}
}

// validateCatalogue validates every JSON file and flags duplicate IDs and
// built-in overrides
func validateCatalogue(files []string) []ValidationResult {
	builtin := make(map[string]bool)
	for _, p := range config.BuiltinPuzzles() {
		builtin[p.ID] = true
	}

	seen := make(map[string]string)
	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		result := validatePuzzle(file)
		if result.ID != "" {
			if other, ok := seen[result.ID]; ok {
				result.fail("Duplicate id %q (also in %s)", result.ID, other)
			} else {
				seen[result.ID] = result.File
			}
			if builtin[result.ID] && result.Valid {
				result.info("Overrides built-in puzzle %s", result.ID)
			}
		}
		results = append(results, result)
	}
	return results
}

// main validates the *.json files in the directory given as the first
// argument (or ../puzzles), printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	puzzleDir := "../puzzles"
	if len(os.Args) > 1 {
		puzzleDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(puzzleDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding puzzle files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, result := range validateCatalogue(files) {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Printf("✅ All %d puzzles are valid!\n", len(files))
	} else {
		fmt.Println("❌ Some puzzles have errors")
		os.Exit(1)
	}
}
