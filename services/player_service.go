package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tilefield/server/models"
	"tilefield/server/persistence"
)

// PlayerService manages player-related operations. Live player state is
// owned by the WorldService; this service maps usernames to players and
// persists copies of them.
type PlayerService struct {
	byUsername map[string]string
	world      *WorldService
	db         persistence.Storage
	now        func() time.Time
	mutex      sync.Mutex
}

// NewPlayerService creates a new player service
func NewPlayerService(world *WorldService, db persistence.Storage) *PlayerService {
	return &PlayerService{
		byUsername: make(map[string]string),
		world:      world,
		db:         db,
		now:        time.Now,
	}
}

// GetOrCreatePlayer gets an existing player or creates a new one at the
// origin of worldName, and returns a copy of its state. Players switching
// worlds are moved to the new origin, which the spawn rule keeps walkable.
func (ps *PlayerService) GetOrCreatePlayer(username string, worldName string) (*models.Player, error) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if _, err := ps.world.World(worldName); err != nil {
		return nil, err
	}

	id, online := ps.byUsername[username]
	var player *models.Player
	if online {
		player = &models.Player{ID: id}
	} else {
		loaded, err := ps.db.LoadPlayerByUsername(username)
		switch {
		case err == nil:
			player = loaded
		case errors.Is(err, persistence.ErrNotFound):
			now := ps.now()
			player = &models.Player{
				ID:        uuid.NewString(),
				Username:  username,
				World:     worldName,
				Icon:      "@",
				Color:     []int{255, 255, 255},
				CreatedAt: now,
				UpdatedAt: now,
			}
		default:
			return nil, fmt.Errorf("failed to load player %s: %w", username, err)
		}
	}

	placed := ps.world.PlacePlayer(player, worldName)

	if err := ps.db.SavePlayer(&placed); err != nil {
		if !online {
			ps.world.RemovePlayer(placed.ID)
		}
		return nil, fmt.Errorf("failed to save player to database: %w", err)
	}

	ps.byUsername[username] = placed.ID
	return &placed, nil
}

// GetPlayer returns a copy of an online player's state
func (ps *PlayerService) GetPlayer(playerID string) (*models.Player, error) {
	player, err := ps.world.Player(playerID)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// UpdatePlayer persists a player's current state
func (ps *PlayerService) UpdatePlayer(playerID string) error {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	snapshot, err := ps.world.touchPlayer(playerID)
	if err != nil {
		return err
	}

	if err := ps.db.SavePlayer(&snapshot); err != nil {
		return fmt.Errorf("failed to save updated player to database: %w", err)
	}

	return nil
}

// ReleasePlayer drops a disconnected player from memory and the world
func (ps *PlayerService) ReleasePlayer(playerID string) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for username, id := range ps.byUsername {
		if id == playerID {
			delete(ps.byUsername, username)
			break
		}
	}
	ps.world.RemovePlayer(playerID)
}
