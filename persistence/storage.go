package persistence

import (
	"errors"

	"tilefield/server/models"
)

// ErrNotFound is returned when a player or world seed does not exist
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data persistence.
// Only players and world seeds are stored; generated tiles never are.
type Storage interface {
	SavePlayer(player *models.Player) error
	LoadPlayer(playerID string) (*models.Player, error)
	LoadPlayerByUsername(username string) (*models.Player, error)
	SaveWorldSeed(seed *models.WorldSeed) error
	LoadWorldSeed(name string) (*models.WorldSeed, error)
	Close() error
}

// Storage backends selectable by Open
const (
	TypeJSON     = "json"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Open creates the backend named by dbType. dsn is a file path for the
// json and sqlite backends and a connection string for postgres.
func Open(dbType, dsn string) (Storage, error) {
	switch dbType {
	case TypePostgres:
		return NewPostgresStore(dsn)
	case TypeSQLite:
		return NewSQLiteStore(dsn)
	case "", TypeJSON:
		return NewJSONStore(dsn)
	default:
		return nil, errors.New("unknown storage type " + dbType)
	}
}
