// Package backend selects and constructs the configured storage backend.
package backend

import "fmt"

// Type identifies a storage backend.
type Type string

const (
	PostgresBackend Type = "postgres"
	SQLiteBackend   Type = "sqlite"
	MemoryBackend   Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case PostgresBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{PostgresBackend, SQLiteBackend, MemoryBackend}
}

// Config holds what each backend needs to start.
type Config struct {
	Type Type

	// Postgres specific
	DatabaseURL string

	// SQLite specific
	SQLitePath string
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres backend")
		}
	case SQLiteBackend:
		if c.SQLitePath == "" {
			return fmt.Errorf("database path is required for sqlite backend")
		}
	}
	return nil
}
