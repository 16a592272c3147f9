package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Generated image patterns a client can paint without an image file
const (
	PatternEarth    = "earth"
	PatternBlossoms = "blossoms"
	PatternWaves    = "waves"
	PatternSunset   = "sunset"
	PatternCity     = "city"
	PatternForest   = "forest"
)

var (
	knownPatterns = map[string]bool{
		PatternEarth:    true,
		PatternBlossoms: true,
		PatternWaves:    true,
		PatternSunset:   true,
		PatternCity:     true,
		PatternForest:   true,
	}

	puzzleIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// PuzzleConfig describes a selectable puzzle image and its defaults
type PuzzleConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`     // URL or path served to clients
	Generated   bool   `json:"generated,omitempty"` // painted client-side from Pattern
	Pattern     string `json:"pattern,omitempty"`
	GridSize    int    `json:"grid_size,omitempty"` // zero means DefaultGridSize
	ShowNumbers bool   `json:"show_numbers"`
}

// EffectiveGridSize returns the configured grid size or the default
func (c *PuzzleConfig) EffectiveGridSize() int {
	if c.GridSize == 0 {
		return DefaultGridSize
	}
	return c.GridSize
}

// ValidatePuzzleConfig validates a puzzle configuration for correctness
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.ID == "" {
		return fmt.Errorf("config validation: id is required")
	}
	if !puzzleIDPattern.MatchString(config.ID) {
		return fmt.Errorf("config validation: id %q must be lowercase letters, digits, '-' or '_'", config.ID)
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.GridSize != 0 {
		if err := ValidateGridSize(config.GridSize); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}

	if config.Generated {
		if config.Image != "" {
			return fmt.Errorf("config validation: generated puzzles must not set image")
		}
		if !knownPatterns[config.Pattern] {
			return fmt.Errorf("config validation: unknown pattern %q", config.Pattern)
		}
	} else {
		if config.Image == "" {
			return fmt.Errorf("config validation: image is required unless generated is true")
		}
		if config.Pattern != "" {
			return fmt.Errorf("config validation: pattern is only valid for generated puzzles")
		}
	}

	return nil
}

// LoadPuzzleConfig loads and validates a puzzle configuration from a JSON file
func LoadPuzzleConfig(filename string) (*PuzzleConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config PuzzleConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse puzzle config '%s': %w", filename, err)
	}

	if err := ValidatePuzzleConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid puzzle config '%s': %w", filename, err)
	}

	return &config, nil
}
