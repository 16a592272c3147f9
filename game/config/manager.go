package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/wricardo/mcp-training/slidingpuzzle/game/engine"
	"github.com/wricardo/mcp-training/slidingpuzzle/game/service"
)

var (
	ErrInvalidPuzzle = errors.New("invalid puzzle")

	imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}
	nonIDChars      = regexp.MustCompile(`[^a-z0-9]+`)
)

// ImagesSubdir holds picture files inside the puzzles directory. Clients load
// them from "images/<file>".
const ImagesSubdir = "images"

// DefaultPuzzleID is used when no puzzle is requested
const DefaultPuzzleID = "blue-marble-earth"

// builtinPuzzles are painted client-side and always available
var builtinPuzzles = []engine.PuzzleConfig{
	{ID: "blue-marble-earth", Name: "Blue Marble Earth", Description: "Deep blue ocean with green continents and drifting clouds", Generated: true, Pattern: engine.PatternEarth, ShowNumbers: true},
	{ID: "cherry-blossoms", Name: "Cherry Blossoms", Description: "Pink petals scattered over a soft sky", Generated: true, Pattern: engine.PatternBlossoms, ShowNumbers: true},
	{ID: "ocean-waves", Name: "Ocean Waves", Description: "Rolling turquoise waves", Generated: true, Pattern: engine.PatternWaves, ShowNumbers: true},
	{ID: "mountain-sunset", Name: "Mountain Sunset", Description: "Orange sky behind layered peaks", Generated: true, Pattern: engine.PatternSunset, ShowNumbers: true},
	{ID: "city-lights", Name: "City Lights", Description: "Lit windows across a night skyline", Generated: true, Pattern: engine.PatternCity, ShowNumbers: true},
	{ID: "forest-path", Name: "Forest Path", Description: "A trail winding between tall trees", Generated: true, Pattern: engine.PatternForest, ShowNumbers: true},
}

// Manager handles puzzle catalogue loading and caching
type Manager struct {
	puzzleDir     string
	defaultPuzzle *engine.PuzzleConfig
	puzzles       map[string]*engine.PuzzleConfig
	mu            sync.RWMutex
}

// NewManager creates a new puzzle catalogue rooted at puzzleDir
func NewManager(puzzleDir string) (*Manager, error) {
	// Ensure puzzle directory exists
	if _, err := os.Stat(puzzleDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("puzzle directory does not exist: %s", puzzleDir)
	}

	m := &Manager{
		puzzleDir: puzzleDir,
		puzzles:   make(map[string]*engine.PuzzleConfig),
	}

	if err := m.loadDefaultPuzzle(); err != nil {
		return nil, fmt.Errorf("failed to load default puzzle: %w", err)
	}

	return m, nil
}

// Dir returns the catalogue directory
func (m *Manager) Dir() string {
	return m.puzzleDir
}

// ImagesDir returns the directory scanned for picture files
func (m *Manager) ImagesDir() string {
	return filepath.Join(m.puzzleDir, ImagesSubdir)
}

// LoadPuzzle loads a puzzle by ID. JSON files override built-in puzzles and
// discovered images with the same ID.
func (m *Manager) LoadPuzzle(id string) (*engine.PuzzleConfig, error) {
	id = strings.TrimSuffix(id, ".json")

	m.mu.RLock()
	if puzzle, exists := m.puzzles[id]; exists {
		m.mu.RUnlock()
		return puzzle, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if puzzle, exists := m.puzzles[id]; exists {
		return puzzle, nil
	}

	puzzle, err := m.readPuzzleFile(id)
	if err != nil {
		return nil, err
	}
	if puzzle == nil {
		puzzle = m.findImagePuzzle(id)
	}
	if puzzle == nil {
		puzzle = findBuiltin(id)
	}
	if puzzle == nil {
		return nil, fmt.Errorf("%w: %s", service.ErrPuzzleNotFound, id)
	}

	m.puzzles[id] = puzzle
	return puzzle, nil
}

// readPuzzleFile returns nil, nil when no JSON file exists for id
func (m *Manager) readPuzzleFile(id string) (*engine.PuzzleConfig, error) {
	if !validID(id) {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(m.puzzleDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read puzzle file: %w", err)
	}

	var puzzle engine.PuzzleConfig
	if err := json.Unmarshal(data, &puzzle); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s.json: %v", ErrInvalidPuzzle, id, err)
	}
	if puzzle.ID == "" {
		puzzle.ID = id
	}
	if puzzle.ID != id {
		return nil, fmt.Errorf("%w: %s.json declares id %q", ErrInvalidPuzzle, id, puzzle.ID)
	}
	if err := engine.ValidatePuzzleConfig(&puzzle); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPuzzle, err)
	}
	return &puzzle, nil
}

func (m *Manager) findImagePuzzle(id string) *engine.PuzzleConfig {
	for _, puzzle := range m.scanImages() {
		if puzzle.ID == id {
			return puzzle
		}
	}
	return nil
}

// scanImages turns every picture in the images directory into a puzzle
func (m *Manager) scanImages() []*engine.PuzzleConfig {
	entries, err := os.ReadDir(m.ImagesDir())
	if err != nil {
		return nil
	}

	var puzzles []*engine.PuzzleConfig
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		id := ImageID(entry.Name())
		if id == "" {
			continue
		}
		puzzles = append(puzzles, &engine.PuzzleConfig{
			ID:          id,
			Name:        FormatImageName(entry.Name()),
			Image:       ImagesSubdir + "/" + entry.Name(),
			ShowNumbers: true,
		})
	}
	return puzzles
}

// ListPuzzles returns the built-in puzzles first, then discovered images and
// JSON files sorted by ID
func (m *Manager) ListPuzzles() ([]*service.PuzzleInfo, error) {
	entries, err := os.ReadDir(m.puzzleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read puzzle directory: %w", err)
	}

	ids := make([]string, 0, len(builtinPuzzles))
	seen := make(map[string]bool)
	for _, b := range builtinPuzzles {
		ids = append(ids, b.ID)
		seen[b.ID] = true
	}

	var extra []string
	for _, p := range m.scanImages() {
		if !seen[p.ID] {
			seen[p.ID] = true
			extra = append(extra, p.ID)
		}
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		if !seen[id] {
			seen[id] = true
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	ids = append(ids, extra...)

	var puzzles []*service.PuzzleInfo
	for _, id := range ids {
		puzzle, err := m.LoadPuzzle(id)
		if err != nil {
			// Skip invalid puzzles
			continue
		}

		filename := ""
		if _, err := os.Stat(filepath.Join(m.puzzleDir, id+".json")); err == nil {
			filename = id + ".json"
		}
		puzzles = append(puzzles, &service.PuzzleInfo{
			Filename:    filename,
			PuzzleID:    puzzle.ID,
			Name:        puzzle.Name,
			Description: puzzle.Description,
			Image:       puzzle.Image,
			Generated:   puzzle.Generated,
			Pattern:     puzzle.Pattern,
			GridSize:    puzzle.EffectiveGridSize(),
		})
	}

	return puzzles, nil
}

// GetDefault returns the default puzzle
func (m *Manager) GetDefault() *engine.PuzzleConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPuzzle
}

// SetDefault sets the default puzzle by ID
func (m *Manager) SetDefault(id string) error {
	puzzle, err := m.LoadPuzzle(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPuzzle = puzzle
	return nil
}

// RefreshCache drops cached puzzles so edits on disk are picked up
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.puzzles = make(map[string]*engine.PuzzleConfig)
	m.mu.Unlock()

	return m.loadDefaultPuzzle()
}

// loadDefaultPuzzle keeps the current default ID when it still resolves
func (m *Manager) loadDefaultPuzzle() error {
	id := DefaultPuzzleID
	m.mu.RLock()
	if m.defaultPuzzle != nil {
		id = m.defaultPuzzle.ID
	}
	m.mu.RUnlock()

	puzzle, err := m.LoadPuzzle(id)
	if err != nil {
		puzzle, err = m.LoadPuzzle(DefaultPuzzleID)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.defaultPuzzle = puzzle
	m.mu.Unlock()
	return nil
}

// SavePuzzle writes a puzzle to disk and caches it
func (m *Manager) SavePuzzle(id string, puzzle *engine.PuzzleConfig) error {
	id = strings.TrimSuffix(id, ".json")
	if puzzle.ID == "" {
		puzzle.ID = id
	}
	if puzzle.ID != id {
		return fmt.Errorf("%w: id %q does not match %q", ErrInvalidPuzzle, puzzle.ID, id)
	}
	if err := engine.ValidatePuzzleConfig(puzzle); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPuzzle, err)
	}

	data, err := json.MarshalIndent(puzzle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal puzzle: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.puzzleDir, id+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write puzzle file: %w", err)
	}

	m.mu.Lock()
	m.puzzles[id] = puzzle
	m.mu.Unlock()

	return nil
}

// BuiltinPuzzles returns copies of the generated puzzles
func BuiltinPuzzles() []engine.PuzzleConfig {
	out := make([]engine.PuzzleConfig, len(builtinPuzzles))
	copy(out, builtinPuzzles)
	return out
}

func findBuiltin(id string) *engine.PuzzleConfig {
	for _, b := range builtinPuzzles {
		if b.ID == id {
			puzzle := b
			return &puzzle
		}
	}
	return nil
}

// FormatImageName turns "mountain_lake-2.png" into "Mountain Lake 2"
func FormatImageName(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ImageID derives a catalogue ID from an image file name
func ImageID(filename string) string {
	name := strings.ToLower(strings.TrimSuffix(filename, filepath.Ext(filename)))
	return strings.Trim(nonIDChars.ReplaceAllString(name, "-"), "-")
}

func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}
