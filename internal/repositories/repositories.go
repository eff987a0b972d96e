// package repositories provides catalog implementations backed by memory or SQLite.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
)

// NextSequence increments and returns the next sequence number for the given table within tx.
//
// Sequence numbers give a stable insertion order independent of ids and timestamps.
func NextSequence(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	sequenceTable := table + "_sequence"

	_, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int64
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

// New returns the catalog selected by config.
//
// db is only used by the sqlite backend and may be nil otherwise.
func New(config *shared.Config, db *sql.DB, stamper *shared.Stamper) (models.Catalog, error) {
	switch config.Catalog.Backend {
	case shared.CatalogMemory, "":
		return NewMemoryCatalog(stamper), nil
	case shared.CatalogSQLite:
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite catalog requires a database", shared.ErrInvalidConfig)
		}
		return NewSongRepository(db, stamper), nil
	default:
		return nil, fmt.Errorf("%w: unknown catalog backend %q", shared.ErrInvalidConfig, config.Catalog.Backend)
	}
}

// Seed appends the configured seed songs in order, so the last seed ends up first in the catalog.
//
// Catalogs that already hold songs are left alone, which keeps a persistent sqlite catalog from
// collecting duplicate seeds on every start.
func Seed(ctx context.Context, catalog models.Catalog, seeds []shared.SeedConfig) (int, error) {
	existing, err := catalog.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list catalog: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, seed := range seeds {
		if _, err := catalog.Append(ctx, seed.Title, seed.URL); err != nil {
			return i, fmt.Errorf("failed to seed %q: %w", seed.Title, err)
		}
	}
	return len(seeds), nil
}
