package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tilefield/server/models"
	"tilefield/server/noise"
	"tilefield/server/persistence"
	"tilefield/server/terrain"
)

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrNotWalkable      = errors.New("destination is not walkable")
)

// directions maps compass names to unit steps; north is +y
var directions = map[string]models.Position{
	"north":     {X: 0, Y: 1},
	"south":     {X: 0, Y: -1},
	"east":      {X: 1, Y: 0},
	"west":      {X: -1, Y: 0},
	"northeast": {X: 1, Y: 1},
	"northwest": {X: -1, Y: 1},
	"southeast": {X: 1, Y: -1},
	"southwest": {X: -1, Y: -1},
}

// View is a rectangular window of terrain
type View struct {
	World   string                 `json:"world"`
	Center  models.Position        `json:"center"`
	RadiusX int                    `json:"radius_x"`
	RadiusY int                    `json:"radius_y"`
	Rows    [][]models.TerrainKind `json:"rows"`
}

// Probe is the terrain at a single position
type Probe struct {
	World    string             `json:"world"`
	Position models.Position    `json:"position"`
	Terrain  models.TerrainKind `json:"terrain"`
	Walkable bool               `json:"walkable"`
}

// WorldStats summarises one loaded world
type WorldStats struct {
	Name      string              `json:"name"`
	Offsets   models.NoiseOffsets `json:"offsets"`
	Generated int                 `json:"generated_tiles"`
}

// WorldService manages the named worlds and the players walking them
type WorldService struct {
	worlds  map[string]*terrain.Map
	players map[string]*models.Player
	db      persistence.Storage
	noise   noise.Source
	entropy terrain.Entropy
	now     func() time.Time

	worldsMutex  sync.RWMutex
	playersMutex sync.RWMutex
}

// NewWorldService creates a new world service. A nil entropy uses the
// process-wide source.
func NewWorldService(db persistence.Storage, src noise.Source, entropy terrain.Entropy) *WorldService {
	if entropy == nil {
		entropy = terrain.ProcessEntropy()
	}
	return &WorldService{
		worlds:  make(map[string]*terrain.Map),
		players: make(map[string]*models.Player),
		db:      db,
		noise:   src,
		entropy: entropy,
		now:     time.Now,
	}
}

// World returns the named world, replaying its stored offsets or drawing and
// storing new ones the first time the name is seen.
func (ws *WorldService) World(name string) (*terrain.Map, error) {
	ws.worldsMutex.RLock()
	m, exists := ws.worlds[name]
	ws.worldsMutex.RUnlock()
	if exists {
		return m, nil
	}

	ws.worldsMutex.Lock()
	defer ws.worldsMutex.Unlock()

	// Check again if the world was created by another goroutine
	if m, exists := ws.worlds[name]; exists {
		return m, nil
	}

	seed, err := ws.db.LoadWorldSeed(name)
	switch {
	case err == nil:
		m = terrain.NewMapWithOffsets(ws.noise, seed.Offsets)
	case errors.Is(err, persistence.ErrNotFound):
		m = terrain.NewMap(ws.noise, ws.entropy)
		seed = &models.WorldSeed{Name: name, Offsets: m.Offsets(), CreatedAt: ws.now()}
		if err := ws.db.SaveWorldSeed(seed); err != nil {
			return nil, fmt.Errorf("failed to save world %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("failed to load world %s: %w", name, err)
	}

	ws.worlds[name] = m
	return m, nil
}

// PlacePlayer registers player in worldName, moving it to that world's origin
// when it arrives from another world. A player already registered under the
// same ID keeps its in-memory state. It returns a copy of the placed player.
func (ws *WorldService) PlacePlayer(player *models.Player, worldName string) models.Player {
	ws.playersMutex.Lock()
	defer ws.playersMutex.Unlock()

	if existing, exists := ws.players[player.ID]; exists {
		player = existing
	} else {
		ws.players[player.ID] = player
	}

	if player.World != worldName {
		player.World = worldName
		player.X, player.Y = 0, 0
		player.UpdatedAt = ws.now()
	}
	return *player
}

// Player returns a copy of a registered player's current state
func (ws *WorldService) Player(playerID string) (models.Player, error) {
	ws.playersMutex.RLock()
	defer ws.playersMutex.RUnlock()

	player, exists := ws.players[playerID]
	if !exists {
		return models.Player{}, ErrPlayerNotFound
	}
	return *player, nil
}

// touchPlayer stamps UpdatedAt and returns a copy for saving
func (ws *WorldService) touchPlayer(playerID string) (models.Player, error) {
	ws.playersMutex.Lock()
	defer ws.playersMutex.Unlock()

	player, exists := ws.players[playerID]
	if !exists {
		return models.Player{}, ErrPlayerNotFound
	}
	player.UpdatedAt = ws.now()
	return *player, nil
}

// RemovePlayer removes a player from the world
func (ws *WorldService) RemovePlayer(playerID string) {
	ws.playersMutex.Lock()
	defer ws.playersMutex.Unlock()

	delete(ws.players, playerID)
}

// PlayerCount returns how many players are in any world
func (ws *WorldService) PlayerCount() int {
	ws.playersMutex.RLock()
	defer ws.playersMutex.RUnlock()
	return len(ws.players)
}

// MovePlayer steps a player one tile in direction if the destination is walkable
func (ws *WorldService) MovePlayer(playerID string, direction string) (*models.Position, error) {
	step, ok := directions[direction]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	ws.playersMutex.Lock()
	defer ws.playersMutex.Unlock()

	player, exists := ws.players[playerID]
	if !exists {
		return nil, ErrPlayerNotFound
	}

	world, err := ws.World(player.World)
	if err != nil {
		return nil, err
	}

	newPos := models.Position{X: player.X + step.X, Y: player.Y + step.Y}
	if !world.IsWalkable(newPos) {
		return nil, fmt.Errorf("%w: %s at (%d,%d)", ErrNotWalkable, world.GetTile(newPos), newPos.X, newPos.Y)
	}

	player.X = newPos.X
	player.Y = newPos.Y
	player.UpdatedAt = ws.now()

	return &newPos, nil
}

// ViewForPlayer returns the window around a player. center overrides the
// player's own position when non-nil.
func (ws *WorldService) ViewForPlayer(playerID string, center *models.Position, radiusX, radiusY int) (*View, error) {
	ws.playersMutex.RLock()
	player, exists := ws.players[playerID]
	var worldName string
	var pos models.Position
	if exists {
		worldName = player.World
		pos = player.Position()
	}
	ws.playersMutex.RUnlock()

	if !exists {
		return nil, ErrPlayerNotFound
	}
	if center != nil {
		pos = *center
	}
	return ws.ViewAt(worldName, pos, radiusX, radiusY)
}

// ViewAt returns the window around center in the named world
func (ws *WorldService) ViewAt(worldName string, center models.Position, radiusX, radiusY int) (*View, error) {
	world, err := ws.World(worldName)
	if err != nil {
		return nil, err
	}
	return &View{
		World:   worldName,
		Center:  center,
		RadiusX: radiusX,
		RadiusY: radiusY,
		Rows:    world.GetNearbyTiles(center, radiusX, radiusY),
	}, nil
}

// ProbeAt reports the terrain and walkability at one position
func (ws *WorldService) ProbeAt(worldName string, pos models.Position) (*Probe, error) {
	world, err := ws.World(worldName)
	if err != nil {
		return nil, err
	}
	kind := world.GetTile(pos)
	return &Probe{
		World:    worldName,
		Position: pos,
		Terrain:  kind,
		Walkable: kind.IsWalkable(),
	}, nil
}

// ProbeForPlayer probes pos in the world the player is currently in
func (ws *WorldService) ProbeForPlayer(playerID string, pos models.Position) (*Probe, error) {
	player, err := ws.Player(playerID)
	if err != nil {
		return nil, err
	}
	return ws.ProbeAt(player.World, pos)
}

// Stats lists the loaded worlds sorted by name
func (ws *WorldService) Stats() []WorldStats {
	ws.worldsMutex.RLock()
	defer ws.worldsMutex.RUnlock()

	stats := make([]WorldStats, 0, len(ws.worlds))
	for name, m := range ws.worlds {
		stats = append(stats, WorldStats{Name: name, Offsets: m.Offsets(), Generated: m.Generated()})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}
