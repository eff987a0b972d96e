package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songdrop/internal/formatter"
	"github.com/desertthunder/songdrop/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Import uploads every MP3 found in the given directories and files.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	paths, err := tasks.CollectFiles(cmd.Args().Slice())
	if err != nil {
		return err
	}

	opts := tasks.BulkUploadOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}

	r.logger.Info("starting import", "files", len(paths), "workers", opts.NumWorkers, "rate", opts.RateLimit)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ScanFiles:
				r.writePlain("📂 %s\n\n", update.Message)
			case tasks.UploadFiles:
				if _, ok := update.Data.(tasks.FileResult); ok {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.UploadComplete:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	result, runErr := r.uploader.BulkUpload(ctx, progressCh, paths, opts)
	close(progressCh)
	<-printed

	if result == nil {
		return runErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Files: %d\n", result.Total)
	r.writePlain("Uploaded: %d\n", result.Succeeded)
	r.writePlain("Failed: %d\n", result.Failed)

	if result.Failed > 0 {
		r.writePlain("\nFailed files:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %v\n", res.Path, res.Error)
			}
		}
	}

	if reportPath := cmd.String("report"); reportPath != "" {
		if err := formatter.WriteUploadReport(result, reportPath); err != nil {
			return err
		}
		r.writePlain("\nReport saved to %s\n", reportPath)
	}

	if runErr != nil {
		return runErr
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", result.Failed, result.Total)
	}
	return nil
}
