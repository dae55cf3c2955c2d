package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"spindle/internal/blobstore"
	"spindle/internal/repositories"
	"spindle/internal/services"
	"spindle/internal/shared"
	"spindle/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog services.Catalog
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog services.Catalog
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// SetLogger replaces the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, importCommand, statusCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig swaps in the config file named by the command's --config flag
// when it differs from what main loaded.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	configPath := cmd.String("config")
	if configPath == "" {
		return
	}
	if config, err := shared.LoadConfig(configPath); err == nil {
		r.config = config
	} else if !os.IsNotExist(err) {
		r.logger.Warn("failed to load config, keeping current", "path", configPath, "error", err)
	}
}

// openDatabase opens and tunes the configured sqlite database.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// openStores builds the repository set over an open database handle.
func (r *Runner) openStores(db *sql.DB) tasks.Stores {
	return tasks.Stores{
		Artists:   repositories.NewArtistRepository(db),
		Albums:    repositories.NewAlbumRepository(db),
		Tracks:    repositories.NewTrackRepository(db),
		Playlists: repositories.NewPlaylistRepository(db),
		Links:     repositories.NewLinkRepository(db),
		Media:     repositories.NewMediaRepository(db),
		Runs:      repositories.NewImportRunRepository(db),
	}
}

// openBlobstore builds the configured content store and ensures its container exists.
func (r *Runner) openBlobstore(ctx context.Context) (blobstore.Store, error) {
	var store blobstore.Store
	var err error

	switch r.config.Storage.Backend {
	case "", "local":
		store, err = blobstore.NewLocalStore(r.config.Storage.Dir, r.config.Storage.URLBase)
		if err != nil {
			return nil, fmt.Errorf("failed to create local store: %w", err)
		}
	case "s3":
		store, err = blobstore.NewS3Store(ctx, r.config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, r.config.Storage.Backend)
	}

	if err := store.EnsureContainer(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}
	return store, nil
}

// buildEngine assembles the full import pipeline over an open database handle.
func (r *Runner) buildEngine(ctx context.Context, db *sql.DB) (*tasks.ImportEngine, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrMissingCredentials)
	}

	stores := r.openStores(db)

	store, err := r.openBlobstore(ctx)
	if err != nil {
		return nil, err
	}

	archiver := tasks.NewCoverArchiver(stores.Media, store, r.catalog, r.logger)
	engineLogger := shared.WithLogger(r.logger, "component", "import")
	return tasks.NewImportEngine(r.catalog, stores, archiver, r.config.Import.Limiter(), engineLogger), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
