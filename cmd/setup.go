package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"spindle/internal/shared"
)

// Setup initializes the config file, database schema, and content store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		if config, err := shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		} else {
			r.config = config
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err := shared.LoadConfig(configPath); err == nil {
				r.config = config
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if _, err := r.openBlobstore(ctx); err != nil {
		r.logger.Warn("content store not reachable yet", "backend", r.config.Storage.Backend, "error", err)
	} else {
		r.logger.Info("content store ready", "backend", r.config.Storage.Backend)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}
