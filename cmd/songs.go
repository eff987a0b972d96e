package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/songdrop/internal/formatter"
	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/desertthunder/songdrop/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SongsList prints the server's songs in the requested format.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	songs, err := r.client.ListSongs(ctx)
	if err != nil {
		return err
	}

	query := cmd.String("search")
	songs = models.Filter(songs, query)
	r.logger.Debug("listed songs", "count", len(songs), "query", query)

	outputPath := cmd.String("output")
	if outputPath == "" {
		return formatter.Render(r.output, songs, format)
	}

	var buf bytes.Buffer
	if err := formatter.Render(&buf, songs, format); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	r.logger.Info("songs saved", "path", outputPath, "count", len(songs))
	return r.writePlain("✓ Saved %d songs to %s\n", len(songs), outputPath)
}

// SongsAdd records an already hosted file through POST /songs.
func (r *Runner) SongsAdd(ctx context.Context, cmd *cli.Command) error {
	title := cmd.String("title")
	url := cmd.String("url")

	song, err := r.client.AddSong(ctx, title, url)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}
	r.writePlain("✓ Added %q\n", song.Title)
	r.writePlain("%s\n", song.URL)
	return nil
}

// Upload sends a single MP3 through POST /upload.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("%w: file path", shared.ErrMissingArgument)
	}

	title := cmd.String("title")
	if title == "" {
		title = tasks.TitleFromPath(path)
	}

	r.logger.Info("uploading", "path", path, "title", title)
	result, err := r.client.Upload(ctx, title, path)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("%s\n", result.Message)
	r.writePlain("Title: %s\n", result.Title)
	r.writePlain("URL: %s\n", result.URL)
	if result.Note != "" {
		r.writePlain("Note: %s\n", result.Note)
	}
	if !result.Indexed {
		r.writePlain("⚠ The file was stored but is not in the song list\n")
	}
	r.writePlainln("/streammusic %s", result.URL)
	return nil
}

// Health reports the server's status and song count.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	status, err := r.client.Health(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%s: %s (%d songs)\n", r.api.BaseURL(), status.Status, status.Songs)
}
