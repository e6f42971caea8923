package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tilefield/server/noise"
	"tilefield/server/persistence"
)

// Config holds the server settings loaded from YAML and the environment
type Config struct {
	Port         string `yaml:"port"`
	DefaultWorld string `yaml:"default_world"`

	DBType      string `yaml:"db_type"`
	DatabaseURL string `yaml:"database_url"`
	DBFile      string `yaml:"db_file"`

	Noise Noise `yaml:"noise"`

	ViewRadius     int    `yaml:"view_radius"`
	MaxQueryRadius int    `yaml:"max_query_radius"`
	AuditDir       string `yaml:"audit_dir"`
}

// Noise selects the noise backend and its seed
type Noise struct {
	Backend string `yaml:"backend"`
	Seed    int64  `yaml:"seed"`
}

// Default returns the settings used when nothing overrides them
func Default() Config {
	return Config{
		Port:         "8080",
		DefaultWorld: "overworld",
		DBType:       persistence.TypeJSON,
		DatabaseURL:  "host=localhost user=tilefield password=tilefield dbname=tilefield sslmode=disable",
		DBFile:       "db.json",
		Noise: Noise{
			Backend: noise.BackendPerlin,
		},
		ViewRadius:     10,
		MaxQueryRadius: 64,
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when
// path is empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("PORT", &c.Port)
	str("DEFAULT_WORLD", &c.DefaultWorld)
	str("DB_TYPE", &c.DBType)
	str("DATABASE_URL", &c.DatabaseURL)
	str("DB_FILE", &c.DBFile)
	str("NOISE_BACKEND", &c.Noise.Backend)
	str("AUDIT_DIR", &c.AuditDir)
	if err := num("VIEW_RADIUS", &c.ViewRadius); err != nil {
		return err
	}
	if err := num("MAX_QUERY_RADIUS", &c.MaxQueryRadius); err != nil {
		return err
	}
	if v, ok := lookup("NOISE_SEED"); ok && strings.TrimSpace(v) != "" {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("NOISE_SEED: %w", err)
		}
		c.Noise.Seed = seed
	}
	return nil
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	switch c.DBType {
	case persistence.TypeJSON, persistence.TypeSQLite, persistence.TypePostgres:
	default:
		return fmt.Errorf("db_type %q: want json, sqlite or postgres", c.DBType)
	}
	if _, err := noise.New(c.Noise.Backend, c.Noise.Seed); err != nil {
		return err
	}
	if c.ViewRadius <= 0 {
		return fmt.Errorf("view_radius must be positive, got %d", c.ViewRadius)
	}
	if c.MaxQueryRadius < c.ViewRadius {
		return fmt.Errorf("max_query_radius %d is below view_radius %d", c.MaxQueryRadius, c.ViewRadius)
	}
	if strings.TrimSpace(c.DefaultWorld) == "" {
		return fmt.Errorf("default_world must not be empty")
	}
	return nil
}

// StorageDSN returns the path or connection string for the configured backend
func (c Config) StorageDSN() string {
	switch c.DBType {
	case persistence.TypePostgres:
		return c.DatabaseURL
	default:
		return c.DBFile
	}
}
