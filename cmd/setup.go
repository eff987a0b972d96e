package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file if missing, then prepares local storage and the sqlite schema it asks for.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	config.ApplyEnv()

	if cmd.Bool("rollback") {
		return r.rollback(ctx, config.Database)
	}

	if config.Storage.Backend == shared.StorageLocal {
		if err := os.MkdirAll(config.Storage.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create media directory: %w", err)
		}
		r.logger.Info("media directory ready", "path", config.Storage.Dir)
	}

	if config.Catalog.Backend == shared.CatalogSQLite {
		r.logger.Info("initializing database", "path", config.Database.Path)
		db, err := r.openDatabase(ctx, config.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		version, _, err := shared.SchemaVersion(ctx, db)
		if err != nil {
			return err
		}
		r.logger.Infof("setup complete for database: %v", config.Database.Path)
		r.writePlain("Database: %s (schema version %d)\n", config.Database.Path, version)
	}

	r.writePlain("✓ songdrop is ready\n")
	r.writePlain("Config: %s\n", configPath)
	r.writePlain("Catalog: %s\n", config.Catalog.Backend)
	r.writePlain("Storage: %s\n", config.Storage.Backend)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'songdrop serve' and open %s\n", config.Server.PublicURL)
	r.writePlain("2. Run 'songdrop upload song.mp3' to add your first song\n")
	return nil
}

// rollback reverts the latest applied migration of the sqlite database in config.
func (r *Runner) rollback(ctx context.Context, config shared.DatabaseConfig) error {
	if config.Path == ":memory:" {
		return fmt.Errorf("%w: nothing to roll back in an in-memory database", shared.ErrInvalidConfig)
	}

	db, err := shared.NewDatabase(config.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	from, ok, err := shared.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if !ok {
		r.writePlain("Database: %s has no migrations applied\n", config.Path)
		return nil
	}

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return err
	}
	r.logger.Info("rolled back migration", "version", from, "path", config.Path)

	if to, ok, err := shared.SchemaVersion(ctx, db); err == nil && ok {
		r.writePlain("✓ Rolled back migration %d, schema version is now %d\n", from, to)
	} else {
		r.writePlain("✓ Rolled back migration %d, no migrations applied\n", from)
	}
	return nil
}
