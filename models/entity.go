package models

import "time"

// Player represents a connected user walking the map
type Player struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	World     string    `json:"world"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Icon      string    `json:"icon"`
	Color     []int     `json:"color"` // RGB values
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Position returns the tile the player stands on
func (p *Player) Position() Position {
	return Position{X: p.X, Y: p.Y}
}

// WorldSeed is the captured noise realization of a named world
type WorldSeed struct {
	Name      string       `json:"name"`
	Offsets   NoiseOffsets `json:"offsets"`
	CreatedAt time.Time    `json:"created_at"`
}
