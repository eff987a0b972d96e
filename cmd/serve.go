package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/songdrop/internal/intake"
	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/repositories"
	"github.com/desertthunder/songdrop/internal/server"
	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/desertthunder/songdrop/internal/storage"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Serve builds the catalog, storage and upload pipeline from config and runs the web server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if addr := cmd.String("addr"); addr != "" {
		if err := applyAddr(&config.Server, addr); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stamper := shared.NewStamper()
	catalog, closeCatalog, err := r.openCatalog(ctx, config, stamper)
	if err != nil {
		return err
	}
	defer closeCatalog()

	store, err := storage.New(config, r.httpClient, shared.WithLogger(r.logger, "component", "storage"))
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	pipeline := intake.New(intake.Opts{
		Catalog: catalog,
		Store:   store,
		Stamper: stamper,
		Policy:  intake.IndexPolicy(config.Intake.IndexPolicy),
		Logger:  r.logger,
	})

	opts := server.Options{
		Catalog:        catalog,
		Pipeline:       pipeline,
		Logger:         r.logger,
		MaxUploadBytes: config.Server.MaxUploadBytes(),
	}
	if config.Server.UploadRate > 0 {
		burst := max(config.Server.UploadBurst, 1)
		opts.UploadLimiter = rate.NewLimiter(rate.Limit(config.Server.UploadRate), burst)
	}
	if config.Storage.Backend == shared.StorageLocal {
		opts.MediaDir = config.Storage.Dir
	}

	r.logger.Info("starting songdrop",
		"addr", config.Server.Addr(),
		"catalog", config.Catalog.Backend,
		"storage", store.Describe(),
		"index_policy", config.Intake.IndexPolicy,
	)

	if cmd.Bool("open") {
		go func() {
			if err := shared.OpenBrowser(config.Server.PublicURL); err != nil {
				r.logger.Warn("could not open browser", "error", err)
			}
		}()
	}

	return server.Run(ctx, config.Server, server.New(opts), r.logger)
}

// openCatalog returns the configured catalog, seeded, with a close func for any database it opened.
func (r *Runner) openCatalog(ctx context.Context, config *shared.Config, stamper *shared.Stamper) (models.Catalog, func(), error) {
	var db *sql.DB
	closeFn := func() {}

	if config.Catalog.Backend == shared.CatalogSQLite {
		var err error
		if db, err = r.openDatabase(ctx, config.Database); err != nil {
			return nil, closeFn, err
		}
		closeFn = func() {
			if err := db.Close(); err != nil {
				r.logger.Warn("failed to close database", "error", err)
			}
		}
	}

	catalog, err := repositories.New(config, db, stamper)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}

	n, err := repositories.Seed(ctx, catalog, config.Catalog.Seed)
	if err != nil {
		closeFn()
		return nil, func() {}, fmt.Errorf("failed to seed catalog: %w", err)
	}
	if n > 0 {
		r.logger.Info("seeded catalog", "songs", n)
	}

	return catalog, closeFn, nil
}

// openDatabase opens the sqlite database and brings its schema up to date.
func (r *Runner) openDatabase(ctx context.Context, config shared.DatabaseConfig) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	if config.Path != ":memory:" {
		shared.ConfigureDatabase(db, config.MaxOpenConns, config.MaxIdleConns)
	}

	ran, err := shared.RunMigrations(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(ran) > 0 {
		r.logger.Info("applied migrations", "versions", ran, "path", config.Path)
	}
	return db, nil
}

func applyAddr(config *shared.ServerConfig, addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: --addr %q: %v", shared.ErrInvalidArgument, addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("%w: --addr %q: bad port", shared.ErrInvalidArgument, addr)
	}

	config.Host = host
	config.Port = port
	return nil
}

// loadConfig reads path when it exists and falls back to the config loaded at startup otherwise.
//
// Environment overrides are applied to a freshly loaded file.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if path == "" || path == defaultConfigPath {
		return r.config, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv()
	return config, nil
}
