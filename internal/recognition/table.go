package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/franckalain/foodlens/internal/logger"
	"github.com/franckalain/foodlens/internal/models"
)

// DefaultCalories is the estimate for labels missing from the table
const DefaultCalories = 200

// Entry is the nutrition estimate for one label
type Entry struct {
	Calories int            `json:"calories"`
	Macros   *models.Macros `json:"macros,omitempty"`
}

func defaultEntries() map[string]Entry {
	return map[string]Entry{
		"Pizza":    {Calories: 285, Macros: &models.Macros{Protein: 12, Carbs: 36, Fat: 10}},
		"Burger":   {Calories: 354, Macros: &models.Macros{Protein: 20, Carbs: 30, Fat: 17}},
		"Salad":    {Calories: 180, Macros: &models.Macros{Protein: 3, Carbs: 12, Fat: 13}},
		"Sandwich": {Calories: 250, Macros: &models.Macros{Protein: 11, Carbs: 30, Fat: 9}},
	}
}

// Table maps food labels to calorie estimates. Lookups ignore case.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewTable creates a table holding the built-in estimates
func NewTable() *Table {
	t := &Table{}
	t.replace(defaultEntries())
	return t
}

// Estimate returns the calories for label and its macros when known
func (t *Table) Estimate(label string) (int, *models.Macros) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[strings.ToLower(label)]
	if !ok {
		return DefaultCalories, nil
	}
	if entry.Macros == nil {
		return entry.Calories, nil
	}
	macros := *entry.Macros
	return entry.Calories, &macros
}

// Len returns the number of known labels
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// LoadFile replaces the table with the built-in estimates overlaid by the
// entries in a JSON file of the form {"Pizza": {"calories": 285}}
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read calorie table: %w", err)
	}

	var overrides map[string]Entry
	if err := json.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse calorie table: %w", err)
	}

	entries := defaultEntries()
	for label, entry := range overrides {
		if entry.Calories < 0 {
			return fmt.Errorf("negative calories for %q", label)
		}
		entries[label] = entry
	}

	t.replace(entries)
	logger.Info("Calorie table loaded", "path", path, "labels", len(entries))
	return nil
}

func (t *Table) replace(entries map[string]Entry) {
	normalized := make(map[string]Entry, len(entries))
	for label, entry := range entries {
		normalized[strings.ToLower(label)] = entry
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = normalized
}

// Watch reloads the table whenever the file at path is written, until ctx
// is done. The directory is watched so editors that replace the file are
// picked up too.
func (t *Table) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				logger.Debug("Calorie table changed", "path", event.Name)
				if err := t.LoadFile(path); err != nil {
					logger.Error("Error reloading calorie table", "error", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Calorie table watcher error", "error", err)
		}
	}
}
