package backend

import (
	"fmt"

	"bilancio/internal/config"
)

// Config holds what the factory needs to construct a backend.
type Config struct {
	Type Type

	// SQLite
	SQLiteDBPath string

	// Flatfile
	DataDirectory string
}

// FromAppConfig converts the application config into a backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          t,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDirectory,
	}, nil
}

// Validate checks that the config is sufficient for its backend type.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("database path is required for the sqlite backend")
		}
	case FlatfileBackend:
		if c.DataDirectory == "" {
			return fmt.Errorf("data directory is required for the flatfile backend")
		}
	}

	return nil
}
