package models

import "fmt"

// Position identifies a single tile on the unbounded map
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NoiseOffsets shift global coordinates into one realization of the noise surface
type NoiseOffsets struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// TerrainKind is the classified ground type at a position
type TerrainKind uint8

// Terrain kinds, ordered by ascending height
const (
	TerrainWater TerrainKind = iota
	TerrainBeach
	TerrainGround
	TerrainMountain
)

type terrainInfo struct {
	name     string
	glyph    string
	color    [3]int
	walkable bool
}

var terrainTable = [...]terrainInfo{
	TerrainWater:    {name: "water", glyph: "~", color: [3]int{0, 0, 255}, walkable: false},
	TerrainBeach:    {name: "beach", glyph: ".", color: [3]int{255, 204, 0}, walkable: true},
	TerrainGround:   {name: "ground", glyph: ",", color: [3]int{51, 127, 51}, walkable: true},
	TerrainMountain: {name: "mountain", glyph: "^", color: [3]int{127, 127, 127}, walkable: false},
}

// TerrainKinds lists every kind in height order
var TerrainKinds = []TerrainKind{TerrainWater, TerrainBeach, TerrainGround, TerrainMountain}

// Valid reports whether k is one of the known kinds
func (k TerrainKind) Valid() bool {
	return int(k) < len(terrainTable)
}

// IsWalkable reports whether a player may stand on this terrain
func (k TerrainKind) IsWalkable() bool {
	return k.Valid() && terrainTable[k].walkable
}

// Glyph returns the single-character symbol used by text clients
func (k TerrainKind) Glyph() string {
	if !k.Valid() {
		return "?"
	}
	return terrainTable[k].glyph
}

// Color returns the RGB color used to render the terrain
func (k TerrainKind) Color() []int {
	if !k.Valid() {
		return []int{0, 0, 0}
	}
	c := terrainTable[k].color
	return []int{c[0], c[1], c[2]}
}

func (k TerrainKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("terrain(%d)", uint8(k))
	}
	return terrainTable[k].name
}

// MarshalText encodes the kind by name so JSON payloads stay readable
func (k TerrainKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid terrain kind %d", uint8(k))
	}
	return []byte(terrainTable[k].name), nil
}

// UnmarshalText decodes a kind from its name
func (k *TerrainKind) UnmarshalText(text []byte) error {
	kind, err := ParseTerrainKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseTerrainKind looks up a kind by its name
func ParseTerrainKind(name string) (TerrainKind, error) {
	for _, k := range TerrainKinds {
		if terrainTable[k].name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown terrain kind %q", name)
}
