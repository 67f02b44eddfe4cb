package backend

import (
	"context"
	"fmt"
	"log/slog"

	"rentledger/internal/storage"
	"rentledger/internal/store/memory"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLBackend(storage.NewSQLiteRepository(config.SQLiteDBPath))
	case PostgresBackend:
		return f.createSQLBackend(storage.NewPostgresRepository(config.DatabaseURL))
	case MemoryBackend:
		return f.createMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLBackend(repo *storage.Repository, err error) (*Result, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	f.logger.Info("Initialized SQL backend", "dialect", repo.Dialect())
	return &Result{Gateway: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() *Result {
	store := memory.New()
	f.logger.Warn("Initialized memory backend, records are lost on restart")
	return &Result{Gateway: store, Cleanup: store.Close}
}
