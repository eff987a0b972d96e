package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return err
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the server
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return err
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIDump fetches the health status and every song in one JSON document.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	outputPath := cmd.String("output")

	type DumpData struct {
		Server string            `json:"server"`
		Health any               `json:"health,omitempty"`
		Songs  any               `json:"songs,omitempty"`
		Errors map[string]string `json:"errors,omitempty"`
	}

	dump := DumpData{Server: r.api.BaseURL(), Errors: map[string]string{}}

	r.logger.Info("dumping API state", "server", dump.Server)

	for _, endpoint := range []string{"/healthz", "/songs"} {
		resp, err := r.api.Get(ctx, endpoint)
		if err == nil {
			err = resp.Err()
		}
		if err != nil {
			dump.Errors[endpoint] = err.Error()
			r.logger.Warn("failed to fetch", "endpoint", endpoint, "error", err)
			continue
		}

		switch endpoint {
		case "/healthz":
			dump.Health = resp.JSONData
		case "/songs":
			dump.Songs = resp.JSONData
		}
	}

	if outputPath == "" {
		return r.writeJSON(dump, pretty)
	}

	data, err := shared.MarshalJSON(dump, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal dump: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}

	r.logger.Info("dump saved", "path", outputPath)
	return r.writePlain("✓ Dump saved to %s\n", outputPath)
}
