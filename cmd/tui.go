package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/desertthunder/songdrop/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive song browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil {
		return fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/songdrop-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.logger.Info("starting TUI", "server", r.api.BaseURL())

	return ui.Run(ctx, r.client)
}
