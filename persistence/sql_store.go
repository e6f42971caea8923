package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tilefield/server/models"
)

// sqlStore implements Storage over database/sql. Queries are written with
// '?' placeholders and rebound for drivers that want another style.
type sqlStore struct {
	db     *sql.DB
	rebind func(string) string
}

func questionMarks(query string) string { return query }

// dollarPlaceholders rewrites '?' placeholders to $1, $2, ... for Postgres
func dollarPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const playerColumns = `id, username, world, x, y, icon, color, created_at, updated_at`

// SavePlayer inserts or updates a player
func (s *sqlStore) SavePlayer(player *models.Player) error {
	colorJSON, err := json.Marshal(player.Color)
	if err != nil {
		return fmt.Errorf("failed to marshal player color: %w", err)
	}

	query := s.rebind(`
	INSERT INTO players (` + playerColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id)
	DO UPDATE SET
		world = excluded.world, x = excluded.x, y = excluded.y,
		icon = excluded.icon, color = excluded.color,
		updated_at = excluded.updated_at
	`)

	_, err = s.db.Exec(query,
		player.ID, player.Username, player.World, player.X, player.Y,
		player.Icon, string(colorJSON),
		toMillis(player.CreatedAt), toMillis(player.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}

	return nil
}

// LoadPlayer loads a player by ID
func (s *sqlStore) LoadPlayer(playerID string) (*models.Player, error) {
	query := s.rebind(`SELECT ` + playerColumns + ` FROM players WHERE id = ?`)
	player, err := scanPlayer(s.db.QueryRow(query, playerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player with ID %s: %w", playerID, ErrNotFound)
	}
	return player, err
}

// LoadPlayerByUsername loads a player by username
func (s *sqlStore) LoadPlayerByUsername(username string) (*models.Player, error) {
	query := s.rebind(`SELECT ` + playerColumns + ` FROM players WHERE username = ?`)
	player, err := scanPlayer(s.db.QueryRow(query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player with username %s: %w", username, ErrNotFound)
	}
	return player, err
}

func scanPlayer(row *sql.Row) (*models.Player, error) {
	var player models.Player
	var colorJSON string
	var createdAt, updatedAt int64

	err := row.Scan(
		&player.ID, &player.Username, &player.World, &player.X, &player.Y,
		&player.Icon, &colorJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	if err := json.Unmarshal([]byte(colorJSON), &player.Color); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player color: %w", err)
	}
	player.CreatedAt = fromMillis(createdAt)
	player.UpdatedAt = fromMillis(updatedAt)

	return &player, nil
}

// SaveWorldSeed inserts or replaces the offsets of a named world
func (s *sqlStore) SaveWorldSeed(seed *models.WorldSeed) error {
	query := s.rebind(`
	INSERT INTO world_seeds (name, offset_x, offset_y, offset_z, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (name)
	DO UPDATE SET
		offset_x = excluded.offset_x, offset_y = excluded.offset_y, offset_z = excluded.offset_z
	`)

	_, err := s.db.Exec(query,
		seed.Name, seed.Offsets.X, seed.Offsets.Y, seed.Offsets.Z, toMillis(seed.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save world seed: %w", err)
	}

	return nil
}

// LoadWorldSeed loads the offsets of a named world
func (s *sqlStore) LoadWorldSeed(name string) (*models.WorldSeed, error) {
	query := s.rebind(`SELECT name, offset_x, offset_y, offset_z, created_at FROM world_seeds WHERE name = ?`)

	var seed models.WorldSeed
	var createdAt int64
	err := s.db.QueryRow(query, name).Scan(
		&seed.Name, &seed.Offsets.X, &seed.Offsets.Y, &seed.Offsets.Z, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("world with name %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load world seed: %w", err)
	}
	seed.CreatedAt = fromMillis(createdAt)

	return &seed, nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
