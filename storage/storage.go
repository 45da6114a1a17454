package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
)

// Storage persists downloaded tracks
type Storage interface {
	// Save writes the content of r under name and returns where it was stored
	Save(ctx context.Context, name string, r io.Reader) (string, error)

	Close() error
}

// New builds the storage backend selected by cfg.Type
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.OutputDir)
	case "gcs":
		return NewGCSStorage(ctx, cfg.Bucket, cfg.ObjectPrefix, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
