// Package database persists the monitor document. It is the only package that
// touches the filesystem or a database.
package database

import (
	"context"
	"fmt"

	"github.com/gamestatus/gamestatus-bot/internal/models"
	"github.com/rs/zerolog"
)

// Store loads and saves the single persisted document.
type Store interface {
	// Load never fails: a missing or unreadable document is logged and an
	// empty one is returned.
	Load(ctx context.Context) models.Document
	Save(ctx context.Context, doc models.Document) error
	Close() error
}

// Open returns the store for driver. "file" keeps the document in a JSON file
// at dsn; "sqlite", "sqlite3" and "postgres" keep it in a single database row.
func Open(driver, dsn string, log zerolog.Logger) (Store, error) {
	switch driver {
	case "", "file":
		return NewFileStore(dsn, log), nil
	case "sqlite", "sqlite3", "postgres":
		return OpenGorm(driver, dsn, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
