package backend

import (
	"context"
	"fmt"

	"bilancio/internal/flatfile"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

// Factory constructs backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type defaultFactory struct {
	logger *log.Logger
}

// NewFactory creates the default backend factory.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &defaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *defaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLite(ctx, config)
	case FlatfileBackend:
		return f.createFlatfile(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *defaultFactory) createSQLite(ctx context.Context, config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "initialized sqlite backend", log.FieldPath, config.SQLiteDBPath)

	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *defaultFactory) createFlatfile(ctx context.Context, config Config) (*Result, error) {
	store, err := flatfile.NewFromFiles(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("initialize flatfile store: %w", err)
	}

	f.logger.InfoContext(ctx, "initialized flatfile backend", log.FieldPath, config.DataDirectory)

	return &Result{Store: store}, nil
}
