package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"tilefield/server/models"
)

// JSONStore handles data persistence using a local JSON file
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	data     *JSONData
}

// JSONData represents the structure of the JSON database
type JSONData struct {
	Players map[string]*models.Player    `json:"players"`
	Worlds  map[string]*models.WorldSeed `json:"worlds"`
}

// NewJSONStore creates a new JSON storage manager
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &JSONData{
			Players: make(map[string]*models.Player),
			Worlds:  make(map[string]*models.WorldSeed),
		},
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadLocked(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %w", err)
		}
	} else {
		if err := store.saveLocked(); err != nil {
			return nil, fmt.Errorf("failed to create JSON store file: %w", err)
		}
	}

	return store, nil
}

func (js *JSONStore) loadLocked() error {
	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Players == nil {
		js.data.Players = make(map[string]*models.Player)
	}
	if js.data.Worlds == nil {
		js.data.Worlds = make(map[string]*models.WorldSeed)
	}
	return nil
}

// saveLocked writes to a temp file and renames it so a crash never leaves half a file
func (js *JSONStore) saveLocked() error {
	data, err := json.MarshalIndent(js.data, "", "  ")
	if err != nil {
		return err
	}

	tmp := js.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, js.filePath)
}

// SavePlayer saves a player to the store
func (js *JSONStore) SavePlayer(player *models.Player) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	stored := *player
	js.data.Players[player.ID] = &stored
	return js.saveLocked()
}

// LoadPlayer loads a player by ID
func (js *JSONStore) LoadPlayer(playerID string) (*models.Player, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	player, exists := js.data.Players[playerID]
	if !exists {
		return nil, fmt.Errorf("player with ID %s: %w", playerID, ErrNotFound)
	}

	loaded := *player
	return &loaded, nil
}

// LoadPlayerByUsername loads a player by username
func (js *JSONStore) LoadPlayerByUsername(username string) (*models.Player, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	for _, player := range js.data.Players {
		if player.Username == username {
			loaded := *player
			return &loaded, nil
		}
	}

	return nil, fmt.Errorf("player with username %s: %w", username, ErrNotFound)
}

// SaveWorldSeed records the offsets of a named world
func (js *JSONStore) SaveWorldSeed(seed *models.WorldSeed) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	stored := *seed
	js.data.Worlds[seed.Name] = &stored
	return js.saveLocked()
}

// LoadWorldSeed loads the offsets of a named world
func (js *JSONStore) LoadWorldSeed(name string) (*models.WorldSeed, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	seed, exists := js.data.Worlds[name]
	if !exists {
		return nil, fmt.Errorf("world with name %s: %w", name, ErrNotFound)
	}

	loaded := *seed
	return &loaded, nil
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}
