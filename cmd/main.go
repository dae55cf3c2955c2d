package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"spindle/internal/services"
	"spindle/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var catalog services.Catalog
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if client, err := services.NewSpotifyClient(services.SpotifyOpts{
			ClientID:     config.Credentials.Spotify.ClientID,
			ClientSecret: config.Credentials.Spotify.ClientSecret,
			PageSize:     config.Import.PageSize,
			Limiter:      config.Import.Limiter(),
		}); err == nil {
			catalog = client
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "spindle",
		Usage:    "Import Spotify playlists into a local catalog",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			logger.Error("missing Spotify credentials, run 'spindle setup' and edit config.toml")
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
