package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spindle/internal/formatter"
	"spindle/internal/shared"
)

// Export writes an imported playlist's track listing to a file format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)
	playlistID := cmd.String("id")
	format := cmd.String("format")
	output := cmd.String("output")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	stores := r.openStores(db)

	export, err := stores.Playlists.Export(playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}

	r.logger.Info("exporting playlist", "playlist", export.Playlist.Name, "format", format, "tracks", len(export.Tracks))

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks\n", len(export.Tracks))
		r.writePlain("Tracks: %s\n", result.TracksFile)
		r.writePlain("Metadata: %s\n", result.MetadataFile)

	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(export, output, nil)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), result.Directory)

	case "txt", "text":
		data, err := formatter.ExportToText(export)
		if err != nil {
			return err
		}
		return r.writePlain("%s", string(data))

	case "json":
		return r.writeJSON(export, true)

	default:
		return fmt.Errorf("%w: unknown format %q (csv, markdown, txt, json)", shared.ErrInvalidArgument, format)
	}

	return nil
}
