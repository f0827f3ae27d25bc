package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/repositories"
	"github.com/desertthunder/freemovies/internal/shared"
)

// Setup writes a config file when missing, then initializes the configured storage.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config written to %s\n", configPath)

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		config.ApplyEnv()
		r.config = config
	}

	dbCfg := r.config.Database
	if dbCfg.Driver == shared.DriverFirestore {
		client, err := repositories.NewFirestoreClient(ctx, r.config.Firestore)
		if err != nil {
			return err
		}
		client.Close()
		r.writePlain("✓ Firestore project %s reachable\n", r.config.Firestore.ProjectID)

		// accounts stay in sqlite
		dbCfg.Driver, dbCfg.DSN = shared.DriverSQLite, ""
	}

	r.logger.Info("initializing database", "driver", dbCfg.Driver, "path", dbCfg.Path)

	db, err := shared.OpenDatabase(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db, dbCfg.Driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", dbCfg.Driver)
	return r.writePlain("✓ Database ready (%s)\n", dbCfg.Driver)
}
