// pkg/storage/store.go

// Package storage persists game state as one JSON document per game,
// system.<name>.json, in a configured directory. Timestamps are RFC 3339
// strings and vectors 3-element numeric arrays.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/config"
	"github.com/ZDSRepositories/dotwar/pkg/engine"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/event"
)

// ErrGameNotFound reports a load of a game with no save file.
var ErrGameNotFound = errors.New("game not found")

// gameMeta is the "game" block of the persisted document.
type gameMeta struct {
	Name         string    `json:"name"`
	CreatedOn    time.Time `json:"created_on"`
	LastModified time.Time `json:"last_modified"`
	SystemTime   time.Time `json:"system_time"`
}

// systemDocument is the complete persisted form of one game.
type systemDocument struct {
	Game     gameMeta         `json:"game"`
	Entities []*entity.Entity `json:"entities"`
	EventLog []event.Event    `json:"event_log"`
}

// Store reads and writes game save files under a single directory.
type Store struct {
	dir     string
	physics config.PhysicsConfig
}

// NewStore creates a store rooted at dir. Loaded games receive the given
// physical constants.
func NewStore(dir string, physics config.PhysicsConfig) *Store {
	return &Store{dir: dir, physics: physics}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Physics returns the physical constants applied to loaded games.
func (s *Store) Physics() config.PhysicsConfig { return s.physics }

// path returns the save file location for a game name.
func (s *Store) path(name string) string {
	return filepath.Join(s.dir, fmt.Sprintf("system.%s.json", name))
}

// Exists reports whether a save file exists for the named game. It does not
// verify the file's contents.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// List returns the names of all games with save files, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory: %w", err)
	}

	var games []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "system.") || !strings.HasSuffix(name, ".json") {
			continue
		}
		games = append(games, strings.TrimSuffix(strings.TrimPrefix(name, "system."), ".json"))
	}
	sort.Strings(games)
	return games, nil
}

// Load reads and reconstructs a game from its save file.
func (s *Store) Load(name string) (*engine.Game, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no game named %q: %w", name, ErrGameNotFound)
		}
		return nil, fmt.Errorf("reading save file for %q: %w", name, err)
	}

	var doc systemDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing save file for %q: %w", name, err)
	}

	return engine.Restore(
		doc.Game.Name,
		doc.Game.CreatedOn,
		doc.Game.LastModified,
		doc.Game.SystemTime,
		doc.Entities,
		doc.EventLog,
		s.physics,
	), nil
}

// Save writes a game's save file atomically: the document is written to a
// temporary file in the same directory, synced, and renamed over the
// previous save. A failed write never leaves a partially written file
// behind.
func (s *Store) Save(g *engine.Game) error {
	doc := systemDocument{
		Game: gameMeta{
			Name:         g.Name(),
			CreatedOn:    g.CreatedOn(),
			LastModified: g.LastModified(),
			SystemTime:   g.SystemTime(),
		},
		Entities: g.Entities(),
		EventLog: g.AllEvents(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling game %q: %w", g.Name(), err)
	}

	tmp, err := os.CreateTemp(s.dir, ".system."+g.Name()+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp save file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing save file for %q: %w", g.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing save file for %q: %w", g.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing save file for %q: %w", g.Name(), err)
	}

	if err := os.Rename(tmpName, s.path(g.Name())); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing save file for %q: %w", g.Name(), err)
	}
	return nil
}
