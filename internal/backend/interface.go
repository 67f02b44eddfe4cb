package backend

import (
	"context"

	"rentledger/internal/ports"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the gateway and an optional cleanup function.
type Result struct {
	Gateway ports.Gateway
	Cleanup CleanupFunc
}

// Factory creates persistence gateways based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string
}

// Type names a persistence backend.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
